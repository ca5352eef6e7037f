//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"bubble/domain"
	"bubble/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery end of one consumer, usually a live connection.
// Consume must never block the caller indefinitely.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks which rooms each live connection currently occupies and
// provides the reverse index needed for broadcast.
type IRegistry interface {
	Subscribe(connectionID, room string, sink EventSink)
	Unsubscribe(connectionID, room string)
	Drop(connectionID string)
	SinksForRoom(room string) []EventSink
	SinkOf(connectionID string) (EventSink, bool)
}

// CommandHandler processes room commands. A room worker calls it with the
// commands of exactly one room, one at a time, in dispatch order.
type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.Command)
}
