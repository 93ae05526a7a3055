// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// Each view is a route from the router table:
//  1. home ("/") : signed-in user and favorites counted by status
//  2. favorites ("/favorites") : the collection as a filterable list
//  3. login ("/login") : username and password form
//  4. register ("/register") : account creation form
//
// Every view switch, including the one at startup, goes through router.Navigate with the
// session as the authenticator, so a guest asking for home lands on login and a signed-in
// user asking for login lands on home.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Network calls run as tea.Cmd functions against the session and favorites managers.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
// In the favorites view d deletes, s cycles the status, r refreshes, y copies the poster URL and p opens it.
package ui
