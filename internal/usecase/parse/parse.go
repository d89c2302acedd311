// Package parse turns the raw Kaillera list feeds into typed records.
// Both parsers are total: malformed input yields fewer records, never an error.
package parse

import (
	"sort"
	"strings"

	"klist/internal/domain/entity"
)

const (
	gameTokens   = 7
	serverFields = 5
	hiddenPrefix = "*"
)

// ParseGames splits the pipe-delimited games feed into records.
//
// Each game occupies seven consecutive tokens:
//
//	Game|IPAddress|User|Emulator|Waiting|Server|Location
//
// A trailing window with fewer than seven tokens is dropped, as is any game
// whose name starts with "*".
func ParseGames(text string) []entity.Game {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	tokens := strings.Split(text, "|")
	games := make([]entity.Game, 0, len(tokens)/gameTokens)
	for i := 0; i+gameTokens <= len(tokens); i += gameTokens {
		w := tokens[i : i+gameTokens]
		if strings.HasPrefix(w[0], hiddenPrefix) {
			continue
		}
		games = append(games, entity.Game{
			Game:      w[0],
			IPAddress: w[1],
			User:      w[2],
			Emulator:  w[3],
			Waiting:   w[4],
			Server:    w[5],
			Location:  w[6],
		})
	}
	return games
}

// ParseServers reads the servers feed, where a name line is followed by a
// data line of the form IPAddress;Users;Games;Version;Location.
//
// A name line that is not followed by a data line is dropped. A data line
// with no pending name produces no record.
func ParseServers(text string) []entity.Server {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		servers []entity.Server
		pending string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, ";") {
			pending = line
			continue
		}

		name := pending
		pending = ""
		if name == "" {
			continue
		}

		f := strings.Split(line, ";")
		for len(f) < serverFields {
			f = append(f, "")
		}
		servers = append(servers, entity.Server{
			Name:      name,
			IPAddress: f[0],
			Users:     f[1],
			Games:     f[2],
			Version:   f[3],
			Location:  f[4],
		})
	}
	return servers
}

// SortGames orders games case-insensitively by name, keeping feed order for ties.
func SortGames(games []entity.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		return strings.ToLower(games[i].Game) < strings.ToLower(games[j].Game)
	})
}

// SortServers orders servers case-insensitively by name, keeping feed order for ties.
func SortServers(servers []entity.Server) {
	sort.SliceStable(servers, func(i, j int) bool {
		return strings.ToLower(servers[i].Name) < strings.ToLower(servers[j].Name)
	})
}
