package domain

// Room is a named, independent broadcast space.
// Names are unique; rooms are never deleted.
type Room struct {
	Name string `json:"name"`
}
