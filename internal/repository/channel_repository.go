package repository

import (
	"context"

	"klist/internal/domain/entity"
)

// ChannelRepository stores which channel receives each category, per guild.
type ChannelRepository interface {
	List(ctx context.Context) ([]entity.Destination, error)
	Get(ctx context.Context, guildID string) (*entity.Destination, error)
	Set(ctx context.Context, guildID string, category entity.Category, channelID string) error
	Clear(ctx context.Context, guildID string, category entity.Category) error
}
