package discord

import "klist/internal/domain/entity"

// messageRequest is the JSON body for creating or editing a message.
// Both fields are always sent so that an edit replaces the previous kind of
// content entirely.
type messageRequest struct {
	Content string      `json:"content"`
	Embeds  []embedJSON `json:"embeds"`
}

type embedJSON struct {
	Title  string      `json:"title,omitempty"`
	Color  int         `json:"color,omitempty"`
	Fields []fieldJSON `json:"fields,omitempty"`
}

type fieldJSON struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// errorResponse is the error body returned by the Discord API.
type errorResponse struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"` // In seconds
	Global     bool    `json:"global"`
}

// buildMessageRequest dispatches on the payload kind.
func buildMessageRequest(p entity.Payload) messageRequest {
	req := messageRequest{Embeds: []embedJSON{}}
	switch p.Kind {
	case entity.PayloadEmbed:
		if p.Embed == nil {
			break
		}
		e := embedJSON{Title: p.Embed.Title, Color: p.Embed.Color}
		for _, f := range p.Embed.Fields {
			e.Fields = append(e.Fields, fieldJSON{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		req.Embeds = append(req.Embeds, e)
	case entity.PayloadText:
		req.Content = p.Text
	}
	return req
}
