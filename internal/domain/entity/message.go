package entity

// Message is a published output message.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}
