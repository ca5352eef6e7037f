package runtime

import (
	"bubble/contract"
	"bubble/domain"
	"bubble/domain/event"
	"bubble/errors"
	"bubble/moderation"
	"bubble/repositories"
	"bubble/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Broadcaster is the room broadcast engine. One instance serves every
// connection of the process; it is explicitly constructed and passed by
// handle so tests can run several independent engines.
//
// Each room gets a lazily started, supervised worker draining a buffered
// command channel. Per-room serialization is what yields the ordering
// contract: send order == persist order == broadcast order. Nothing is
// guaranteed across rooms.
type Broadcaster struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   contract.IRegistry
	messages   repositories.IMessageRepository
	users      repositories.IUserRepository
	moderator  *moderation.Moderator
	sinks      []contract.EventSink
	rooms      map[string]chan domain.Command
	bufferSize int
	ctx        context.Context
}

func NewBroadcaster(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, messages repositories.IMessageRepository,
	users repositories.IUserRepository, bufferSize int) *Broadcaster {
	return &Broadcaster{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		messages:   messages,
		users:      users,
		rooms:      make(map[string]chan domain.Command),
		bufferSize: bufferSize,
	}
}

// WithModerator enables censoring of message text before persistence.
func (b *Broadcaster) WithModerator(m *moderation.Moderator) *Broadcaster {
	b.moderator = m
	return b
}

// AddSinks registers permanent sinks fed with every broadcast message,
// on top of the per-connection member sinks (e.g. the search index).
func (b *Broadcaster) AddSinks(sinks ...contract.EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sinks...)
}

// Start binds the engine to its lifecycle context. Room workers started
// later inherit this context through the supervisor. Must be called before
// the first Join or Send.
func (b *Broadcaster) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = ctx
}

// Join registers the membership immediately, then queues the history replay
// on the room's worker. Serializing the replay with sends of the same room
// makes the snapshot exact: it holds precisely the messages persisted before
// the join was processed, and every later one arrives as a live broadcast.
// Joining a room that was never created succeeds with an empty history.
func (b *Broadcaster) Join(connectionID, room string, sink contract.EventSink) {
	b.registry.Subscribe(connectionID, room, sink)
	b.dispatch(domain.JoinRoomCommand{ConnectionID: connectionID, Room: room})
}

// Send queues a message intent. Membership is deliberately not checked: a
// connection may send to a room it never joined, and the message still
// persists and reaches that room's actual members.
func (b *Broadcaster) Send(connectionID, room, sender, text string) {
	b.dispatch(domain.SendMessageCommand{
		ConnectionID: connectionID,
		Room:         room,
		Sender:       sender,
		Text:         text,
	})
}

// Leave removes one membership. No broadcast, no persistence.
func (b *Broadcaster) Leave(connectionID, room string) {
	b.registry.Unsubscribe(connectionID, room)
}

// Disconnect removes the session from every room it occupies.
func (b *Broadcaster) Disconnect(connectionID string) {
	b.registry.Drop(connectionID)
}

func (b *Broadcaster) dispatch(cmd domain.Command) {
	commands := b.roomChannel(cmd.RoomName())
	select {
	case commands <- cmd:
	default:
		b.log.Warn(fmt.Sprintf("Command channel full for room %q, dropping command", cmd.RoomName()))
	}
}

// roomChannel returns the command channel of a room, starting its
// supervised worker on first use. Rooms live for the process lifetime.
func (b *Broadcaster) roomChannel(room string) chan domain.Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	if commands, ok := b.rooms[room]; ok {
		return commands
	}

	commands := make(chan domain.Command, b.bufferSize)
	b.rooms[room] = commands

	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	b.supervisor.Start(ctx, workers.NewRoomWorker(room, commands, b, b.log))
	return commands
}

// Handle processes one command of one room. The room worker calls it
// sequentially, which is the only thing keeping the ordering contract.
func (b *Broadcaster) Handle(ctx context.Context, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.JoinRoomCommand:
		b.replayHistory(ctx, c)
	case domain.SendMessageCommand:
		b.deliver(ctx, c)
	default:
		b.log.Debug(fmt.Sprintf("Unknown command type %T", cmd))
	}
}

// replayHistory sends the full ordered history of the room to the joining
// connection only. Join is not expected to fail; a store error is logged
// and the client simply receives no history event.
func (b *Broadcaster) replayHistory(ctx context.Context, cmd domain.JoinRoomCommand) {
	sink, ok := b.registry.SinkOf(cmd.ConnectionID)
	if !ok {
		// Disconnected before the join was processed.
		return
	}

	messages, err := b.messages.ByRoom(cmd.Room)
	if err != nil {
		b.log.Error("History replay failed", "room", cmd.Room, "error", err)
		return
	}

	if err := sink.Consume(ctx, event.HistoryReplayed{Room: cmd.Room, Messages: messages}); err != nil {
		b.log.Debug("History delivery skipped", "connection_id", cmd.ConnectionID, "error", err)
	}
}

// deliver resolves the sender's display name, persists the message with the
// server clock, then fans it out to every current member of the room,
// sender included. A persistence failure aborts the broadcast and is
// reported to the originating connection only.
func (b *Broadcaster) deliver(ctx context.Context, cmd domain.SendMessageCommand) {
	message := domain.Message{
		ID:        uuid.New(),
		Room:      cmd.Room,
		User:      b.resolveName(cmd.Sender),
		Text:      b.censor(cmd),
		CreatedAt: time.Now().UTC(),
	}

	if err := b.messages.Store(message); err != nil {
		b.log.Error("Message not persisted, broadcast aborted",
			"room", cmd.Room, "sender", cmd.Sender, "error", err)
		if sink, ok := b.registry.SinkOf(cmd.ConnectionID); ok {
			_ = sink.Consume(ctx, event.SendFailed{Room: cmd.Room, Reason: "message could not be stored"})
		}
		return
	}

	received := event.MessageReceived{Message: message}
	for _, sink := range b.registry.SinksForRoom(cmd.Room) {
		if err := sink.Consume(ctx, received); err != nil {
			b.log.Debug("Member delivery skipped", "room", cmd.Room, "error", err)
		}
	}
	for _, sink := range b.sinks {
		if err := sink.Consume(ctx, received); err != nil {
			b.log.Warn("Permanent sink rejected event", "error", err)
		}
	}
}

// resolveName swaps the raw identity for the stored display name when a
// profile exists. Any lookup problem degrades to the raw identity; a
// missing profile must never block a send.
func (b *Broadcaster) resolveName(identity string) string {
	profile, err := b.users.GetByEmail(identity)
	if err != nil {
		if err != errors.ErrProfileNotFound {
			b.log.Warn("Display name lookup failed", "identity", identity, "error", err)
		}
		return identity
	}
	return profile.Label()
}

// censor runs the optional moderation pass. The detected language is only
// informative and ends up in the log, never in the stored message.
func (b *Broadcaster) censor(cmd domain.SendMessageCommand) string {
	if b.moderator == nil {
		return cmd.Text
	}

	censored, foundWords := b.moderator.Censor(cmd.Text)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(cmd.Text)
		b.log.Warn("Message censored",
			"room", cmd.Room,
			"sender", cmd.Sender,
			"lang", info.Lang.Iso6391(),
			"words", len(foundWords))
	}
	return censored
}
