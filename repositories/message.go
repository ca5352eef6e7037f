//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bubble/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	ByRoom(room string) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// roomPrefix builds "msg:{room}:" with the room name query-escaped.
// Room names are free-form client input; escaping makes the ':' delimiter
// unambiguous, so the prefix of room "a" can never match keys of room "a:b".
func roomPrefix(room string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", url.QueryEscape(room)))
}

// messageKey formats "msg:{room}:{timestamp_padded}:{uuid}" so that:
//  1. A forward prefix scan on "msg:{room}:" yields chronological order
//     thanks to 19-digit zero padding (lexicographical order).
//  2. The UUID acts as a collision disconnector if two messages land
//     on the same nanosecond.
func messageKey(m domain.Message) []byte {
	suffix := fmt.Sprintf("%019d:%s", m.CreatedAt.UnixNano(), m.ID)
	return append(roomPrefix(m.Room), suffix...)
}

// Store persists a message in BadgerDB.
func (m MessageRepository) Store(message domain.Message) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
}

// ByRoom retrieves the full history of a room using a prefix scan.
// Thanks to the padded timestamp in the key, messages come back sorted by
// insertion time, oldest first. A room that never saw a message yields nil.
func (m MessageRepository) ByRoom(room string) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				cp := make([]byte, len(value))
				copy(cp, value)
				raw = append(raw, cp)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for _, b := range raw {
		var message domain.Message
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
