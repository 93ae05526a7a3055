package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/favx/internal/formatter"
	"github.com/desertthunder/favx/internal/models"
)

var _ list.Item = favoriteItem{}

// favoriteItem wraps [models.FavoriteItem] to implement [list.Item].
type favoriteItem struct {
	item models.FavoriteItem
}

func (i favoriteItem) FilterValue() string { return i.item.Title }
func (i favoriteItem) Title() string       { return i.item.Title }
func (i favoriteItem) Description() string {
	parts := []string{string(i.item.Type), styles.As(formatter.StatusLabel(i.item.Status), statusColor(i.item.Status))}
	if r := formatter.RatingString(i.item.Rating); r != "" {
		parts = append(parts, fmt.Sprintf("★ %s/10", r))
	}
	if i.item.Notes != "" {
		parts = append(parts, i.item.Notes)
	}
	return strings.Join(parts, " • ")
}

func toListItems(items []models.FavoriteItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, item := range items {
		out[i] = favoriteItem{item: item}
	}
	return out
}
