package entity

// PayloadKind tags which variant of Payload is populated.
type PayloadKind int

const (
	// PayloadEmbed carries a rich embed block.
	PayloadEmbed PayloadKind = iota + 1
	// PayloadText carries plain message content.
	PayloadText
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadEmbed:
		return "embed"
	case PayloadText:
		return "text"
	default:
		return "unknown"
	}
}

// Payload is the content of one output message. Exactly one of Embed or
// Text is meaningful, selected by Kind.
type Payload struct {
	Kind  PayloadKind
	Embed *Embed
	Text  string
}

// Embed is a titled block of named fields.
type Embed struct {
	Title  string
	Color  int
	Fields []EmbedField
}

// EmbedField is one named section of an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// EmbedPayload wraps an embed into a Payload.
func EmbedPayload(e *Embed) Payload {
	return Payload{Kind: PayloadEmbed, Embed: e}
}

// TextPayload wraps plain text into a Payload.
func TextPayload(text string) Payload {
	return Payload{Kind: PayloadText, Text: text}
}
