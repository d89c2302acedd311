package entity

import (
	"fmt"
	"strings"
)

// Category is one of the two content kinds published by the bot.
type Category string

const (
	// CategoryGames is the waiting games list.
	CategoryGames Category = "games"
	// CategoryServers is the server list.
	CategoryServers Category = "servers"
)

// Categories lists every supported category in publishing order.
var Categories = []Category{CategoryGames, CategoryServers}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryGames || c == CategoryServers
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory converts user input such as "Games" into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}
