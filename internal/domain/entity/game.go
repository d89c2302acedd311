package entity

// Game is one waiting game from the games feed.
type Game struct {
	Game      string `json:"game"`
	Emulator  string `json:"emulator"`
	Server    string `json:"server"`
	Location  string `json:"location"`
	IPAddress string `json:"ip_address"`
	User      string `json:"user"`
	Waiting   string `json:"waiting"`
}
