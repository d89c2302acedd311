package entity

// Server is one Kaillera server from the servers feed.
type Server struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Users     string `json:"users"`
	Games     string `json:"games"`
	Version   string `json:"version"`
	IPAddress string `json:"ip_address"`
}
