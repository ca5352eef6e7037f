package domain

// Command is an intent addressed to a single room.
// Commands for the same room are processed strictly in dispatch order.
type Command interface {
	RoomName() string
}

// JoinRoomCommand asks for a history replay towards the joining connection.
// Membership is registered before the command is dispatched; the replay is
// serialized with sends of the same room so the snapshot is exact.
type JoinRoomCommand struct {
	ConnectionID string
	Room         string
}

func (c JoinRoomCommand) RoomName() string {
	return c.Room
}

// SendMessageCommand carries a message intent. Sender is the raw identity;
// display-name resolution and timestamping happen at processing time.
type SendMessageCommand struct {
	ConnectionID string
	Room         string
	Sender       string
	Text         string
}

func (c SendMessageCommand) RoomName() string {
	return c.Room
}
