package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"klist/internal/domain/entity"
	"klist/internal/repository"
)

type ChannelRepo struct{ db *sql.DB }

func NewChannelRepo(db *sql.DB) repository.ChannelRepository {
	return &ChannelRepo{db: db}
}

func (repo *ChannelRepo) List(ctx context.Context) ([]entity.Destination, error) {
	const query = `
SELECT guild_id, category, channel_id
FROM channels
ORDER BY guild_id ASC, category ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Destination
	index := make(map[string]int)
	for rows.Next() {
		var guildID, category, channelID string
		if err := rows.Scan(&guildID, &category, &channelID); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		i, ok := index[guildID]
		if !ok {
			i = len(out)
			index[guildID] = i
			out = append(out, entity.Destination{GuildID: guildID, Channels: entity.ChannelConfig{}})
		}
		out[i].Channels[entity.Category(category)] = channelID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return out, nil
}

func (repo *ChannelRepo) Get(ctx context.Context, guildID string) (*entity.Destination, error) {
	const query = `
SELECT category, channel_id
FROM channels
WHERE guild_id = $1`
	rows, err := repo.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	dest := &entity.Destination{GuildID: guildID, Channels: entity.ChannelConfig{}}
	for rows.Next() {
		var category, channelID string
		if err := rows.Scan(&category, &channelID); err != nil {
			return nil, fmt.Errorf("Get: Scan: %w", err)
		}
		dest.Channels[entity.Category(category)] = channelID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Get: rows: %w", err)
	}
	if len(dest.Channels) == 0 {
		return nil, nil
	}
	return dest, nil
}

func (repo *ChannelRepo) Set(ctx context.Context, guildID string, category entity.Category, channelID string) error {
	const query = `
INSERT INTO channels (guild_id, category, channel_id, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (guild_id, category)
DO UPDATE SET channel_id = EXCLUDED.channel_id, updated_at = NOW()`
	if _, err := repo.db.ExecContext(ctx, query, guildID, string(category), channelID); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (repo *ChannelRepo) Clear(ctx context.Context, guildID string, category entity.Category) error {
	const query = `DELETE FROM channels WHERE guild_id = $1 AND category = $2`
	if _, err := repo.db.ExecContext(ctx, query, guildID, string(category)); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	return nil
}
