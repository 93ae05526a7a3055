// Package repositories implements SQLite persistence for the local favx database.
//
// Two tables are managed, both created by the embedded migrations in [shared.RunMigrations]:
//   - [KVRepository] : string values under fixed keys, backing the sqlite token store
//   - [ImportRunRepository] : history of bulk favorites imports with their counts
//
// Repositories take an open [sql.DB] and never close it.
package repositories
