package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"klist/internal/domain/entity"
	"klist/internal/repository"
)

// channelsDoc is the on-disk shape of channels.json: guild -> category -> channel.
type channelsDoc map[string]map[string]string

type ChannelRepo struct {
	path string
	mu   sync.Mutex
}

func NewChannelRepo(dir string) (repository.ChannelRepository, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &ChannelRepo{path: filepath.Join(dir, channelsFile)}, nil
}

func (repo *ChannelRepo) load() (channelsDoc, error) {
	doc := channelsDoc{}
	if _, err := readJSON(repo.path, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = channelsDoc{}
	}
	return doc, nil
}

func toDestination(guildID string, channels map[string]string) entity.Destination {
	dest := entity.Destination{GuildID: guildID, Channels: entity.ChannelConfig{}}
	for category, channelID := range channels {
		if channelID != "" {
			dest.Channels[entity.Category(category)] = channelID
		}
	}
	return dest
}

func (repo *ChannelRepo) List(_ context.Context) ([]entity.Destination, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	doc, err := repo.load()
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	guilds := make([]string, 0, len(doc))
	for guildID, channels := range doc {
		if len(channels) > 0 {
			guilds = append(guilds, guildID)
		}
	}
	sort.Strings(guilds)

	out := make([]entity.Destination, 0, len(guilds))
	for _, guildID := range guilds {
		out = append(out, toDestination(guildID, doc[guildID]))
	}
	return out, nil
}

func (repo *ChannelRepo) Get(_ context.Context, guildID string) (*entity.Destination, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	doc, err := repo.load()
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	channels, ok := doc[guildID]
	if !ok || len(channels) == 0 {
		return nil, nil
	}
	dest := toDestination(guildID, channels)
	return &dest, nil
}

func (repo *ChannelRepo) Set(_ context.Context, guildID string, category entity.Category, channelID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	doc, err := repo.load()
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	if doc[guildID] == nil {
		doc[guildID] = map[string]string{}
	}
	doc[guildID][string(category)] = channelID
	if err := writeJSON(repo.path, doc); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (repo *ChannelRepo) Clear(_ context.Context, guildID string, category entity.Category) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	doc, err := repo.load()
	if err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	channels, ok := doc[guildID]
	if !ok {
		return nil
	}
	delete(channels, string(category))
	if len(channels) == 0 {
		delete(doc, guildID)
	}
	if err := writeJSON(repo.path, doc); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	return nil
}
