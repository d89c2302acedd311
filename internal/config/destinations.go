// Package config loads the destination seed: the guilds and channels the
// worker publishes to before any runtime change is made.
package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"klist/internal/domain/entity"
	"klist/internal/repository"
)

// DestinationsFile is the YAML layout of DESTINATIONS_FILE:
//
//	destinations:
//	  - guild_id: "123456789012345678"
//	    games_channel_id: "223456789012345678"
//	    servers_channel_id: "323456789012345678"
type DestinationsFile struct {
	Destinations []DestinationEntry `yaml:"destinations"`
}

// DestinationEntry is one guild. Either channel may be omitted.
type DestinationEntry struct {
	GuildID          string `yaml:"guild_id"`
	GamesChannelID   string `yaml:"games_channel_id"`
	ServersChannelID string `yaml:"servers_channel_id"`
}

// Destination converts the entry and validates its ids.
func (e DestinationEntry) Destination() (entity.Destination, error) {
	if err := entity.ValidateSnowflake("guild_id", e.GuildID); err != nil {
		return entity.Destination{}, err
	}
	dest := entity.Destination{GuildID: e.GuildID, Channels: entity.ChannelConfig{}}
	for cat, id := range map[entity.Category]string{
		entity.CategoryGames:   e.GamesChannelID,
		entity.CategoryServers: e.ServersChannelID,
	} {
		if id == "" {
			continue
		}
		if err := entity.ValidateSnowflake(cat.String()+"_channel_id", id); err != nil {
			return entity.Destination{}, err
		}
		dest.Channels[cat] = id
	}
	return dest, nil
}

// LoadDestinations reads and validates a destinations file. A guild listed
// twice is rejected.
func LoadDestinations(path string) ([]entity.Destination, error) {
	// #nosec G304 -- path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read destinations file: %w", err)
	}

	var file DestinationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse destinations file: %w", err)
	}

	seen := make(map[string]bool, len(file.Destinations))
	dests := make([]entity.Destination, 0, len(file.Destinations))
	for i, entry := range file.Destinations {
		dest, err := entry.Destination()
		if err != nil {
			return nil, fmt.Errorf("destinations[%d]: %w", i, err)
		}
		if seen[dest.GuildID] {
			return nil, fmt.Errorf("destinations[%d]: duplicate guild_id %s", i, dest.GuildID)
		}
		seen[dest.GuildID] = true
		dests = append(dests, dest)
	}
	return dests, nil
}

// DestinationFromEnv builds the single destination described by GUILD_ID,
// GAMES_CHANNEL_ID and SERVERS_CHANNEL_ID. It returns nil when GUILD_ID is
// unset.
func DestinationFromEnv() (*entity.Destination, error) {
	entry := DestinationEntry{
		GuildID:          os.Getenv("GUILD_ID"),
		GamesChannelID:   os.Getenv("GAMES_CHANNEL_ID"),
		ServersChannelID: os.Getenv("SERVERS_CHANNEL_ID"),
	}
	if entry.GuildID == "" {
		return nil, nil
	}
	dest, err := entry.Destination()
	if err != nil {
		return nil, fmt.Errorf("destination from environment: %w", err)
	}
	return &dest, nil
}

// SeedDestinations writes the seed into the channel store. Channels already
// present in the store are kept, so runtime changes survive a restart. It
// returns how many channels were written.
func SeedDestinations(ctx context.Context, channels repository.ChannelRepository, dests []entity.Destination) (int, error) {
	written := 0
	for _, dest := range dests {
		current, err := channels.Get(ctx, dest.GuildID)
		if err != nil {
			return written, fmt.Errorf("get guild %s: %w", dest.GuildID, err)
		}
		for _, cat := range dest.Enabled() {
			if current != nil && current.Channels[cat] != "" {
				continue
			}
			if err := channels.Set(ctx, dest.GuildID, cat, dest.Channels[cat]); err != nil {
				return written, fmt.Errorf("set %s/%s: %w", dest.GuildID, cat, err)
			}
			written++
		}
	}
	return written, nil
}

// LoadSeed gathers the destinations from the file at path (when non-empty)
// and from the environment.
func LoadSeed(path string) ([]entity.Destination, error) {
	var dests []entity.Destination
	if path != "" {
		fromFile, err := LoadDestinations(path)
		if err != nil {
			return nil, err
		}
		dests = append(dests, fromFile...)
	}

	fromEnv, err := DestinationFromEnv()
	if err != nil {
		return nil, err
	}
	if fromEnv != nil {
		dests = append(dests, *fromEnv)
	}
	return dests, nil
}
