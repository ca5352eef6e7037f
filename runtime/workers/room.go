package workers

import (
	"bubble/contract"
	"bubble/domain"
	"context"
	"log/slog"
)

// RoomWorker drains the command channel of exactly one room and hands each
// command to the engine, one at a time. This single consumer is what makes
// history replay and broadcast order deterministic within the room.
type RoomWorker struct {
	room     string
	commands chan domain.Command
	handler  contract.CommandHandler
	log      *slog.Logger
}

func NewRoomWorker(room string, commands chan domain.Command,
	handler contract.CommandHandler, log *slog.Logger) RoomWorker {
	return RoomWorker{room: room, commands: commands, handler: handler, log: log}
}

func (w RoomWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping room worker", "room", w.room)
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				return nil
			}
			w.handler.Handle(ctx, cmd)
		}
	}
}
