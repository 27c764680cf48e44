package model

type RoomCode string

const EmptyRoomCode RoomCode = ""

// Action is a user's recorded decision on one movie.
type Action string

const (
	ActionSeen Action = "seen"
	ActionPass Action = "pass"
)

func (a Action) Valid() bool {
	return a == ActionSeen || a == ActionPass
}

// Match is a movie mutually liked by two or more users in one room.
type Match struct {
	MovieID string   `json:"movie_id"`
	Users   []string `json:"users"`
}
