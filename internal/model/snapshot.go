package model

// PersistedState is the durable document written by the snapshot store.
// It is independent of any room; only the movie index survives restarts.
type PersistedState struct {
	MovieIndex map[string]Movie `json:"movieIndex"`
}

func NewPersistedState() PersistedState {
	return PersistedState{MovieIndex: make(map[string]Movie)}
}
