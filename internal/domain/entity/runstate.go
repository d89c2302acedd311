package entity

// RunState is the persisted posture of the scheduling loop.
type RunState struct {
	Active  bool `json:"active"`
	Deleted bool `json:"deleted"`
}
