package entity

import "strings"

// ChannelConfig maps each enabled category of one guild to its channel.
// A missing category is disabled for that guild.
type ChannelConfig map[Category]string

// Destination is one guild together with its per-category channels.
type Destination struct {
	GuildID  string
	Channels ChannelConfig
}

// Enabled returns the categories that have a channel, in publishing order.
func (d Destination) Enabled() []Category {
	var out []Category
	for _, c := range Categories {
		if d.Channels[c] != "" {
			out = append(out, c)
		}
	}
	return out
}

// ValidateSnowflake checks that id looks like a Discord snowflake.
func ValidateSnowflake(field, id string) error {
	if id == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if len(id) > 20 || strings.Trim(id, "0123456789") != "" {
		return &ValidationError{Field: field, Message: "must be a numeric id"}
	}
	return nil
}
