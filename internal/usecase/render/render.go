// Package render groups sorted records into pages and renders each page into
// a message payload: an embed for games, a fenced monospaced table for servers.
package render

import (
	"fmt"

	"klist/internal/domain/entity"
	"klist/internal/usecase/parse"
)

const (
	// PageSize is the maximum number of games listed on one page.
	PageSize = 25

	// MessageBudget is the maximum length of a text message, in characters.
	MessageBudget = 2000

	// fenceReserve is kept free in every text message for the code fences.
	fenceReserve = 6

	fence = "```"

	// embedColor is the legacy Discord blurple (#7289DA).
	embedColor = 0x7289DA

	gamesTitle   = "Waiting Games List"
	serversTitle = "Kaillera Servers List"
)

// Placeholder returns the payload written over ledger entries that are no
// longer needed for real content.
func Placeholder(c entity.Category) entity.Payload {
	if c == entity.CategoryGames {
		return entity.EmbedPayload(&entity.Embed{
			Title:  gamesTitle,
			Color:  embedColor,
			Fields: []entity.EmbedField{{Name: "-", Value: "-"}},
		})
	}
	return entity.TextPayload(fence + "-" + fence)
}

// GamePages sorts a copy of games and renders it into pages of PageSize.
// At least one page is always returned.
func GamePages(games []entity.Game) []entity.Page {
	sorted := append([]entity.Game(nil), games...)
	parse.SortGames(sorted)

	title := fmt.Sprintf("%s (%d games found)", gamesTitle, len(sorted))
	if len(sorted) == 0 {
		return []entity.Page{{
			Category: entity.CategoryGames,
			Payload:  entity.EmbedPayload(&entity.Embed{Title: title, Color: embedColor}),
		}}
	}

	pages := make([]entity.Page, 0, (len(sorted)+PageSize-1)/PageSize)
	for start := 0; start < len(sorted); start += PageSize {
		end := min(start+PageSize, len(sorted))

		embed := &entity.Embed{Title: title, Color: embedColor}
		for _, g := range sorted[start:end] {
			embed.Fields = append(embed.Fields, gameField(g))
		}
		pages = append(pages, entity.Page{
			Category: entity.CategoryGames,
			Index:    len(pages),
			Records:  end - start,
			Payload:  entity.EmbedPayload(embed),
		})
	}
	return pages
}

func gameField(g entity.Game) entity.EmbedField {
	return entity.EmbedField{
		Name: "**" + g.Game + "**",
		Value: fmt.Sprintf("Emulator: %s\nServer: %s\nLocation: %s\nIP address: %s\nUser: %s\nWaiting: %s",
			g.Emulator, g.Server, g.Location, g.IPAddress, g.User, g.Waiting),
	}
}

// Pages renders records of the given category. records must be
// []entity.Game for games and []entity.Server for servers.
func Pages(c entity.Category, records any) ([]entity.Page, error) {
	switch c {
	case entity.CategoryGames:
		games, ok := records.([]entity.Game)
		if !ok {
			return nil, fmt.Errorf("render %s: unexpected record type %T", c, records)
		}
		return GamePages(games), nil
	case entity.CategoryServers:
		servers, ok := records.([]entity.Server)
		if !ok {
			return nil, fmt.Errorf("render %s: unexpected record type %T", c, records)
		}
		return ServerPages(servers), nil
	default:
		return nil, fmt.Errorf("render: %w: %q", entity.ErrInvalidCategory, c)
	}
}
