// Package search maintains a full-text index of broadcast messages and
// answers history search queries. The index is fed asynchronously as a
// permanent sink of the broadcast engine; it is a convenience view, not
// the source of truth (that is the message repository).
package search

import (
	"bubble/domain"
	"bubble/domain/event"
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/blugelabs/bluge"
)

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}

// Consume indexes every broadcast message. Called by the engine after the
// member fan-out; other event types are ignored.
func (i *MessageIndex) Consume(_ context.Context, e event.DomainEvent) error {
	received, ok := e.(event.MessageReceived)
	if !ok {
		return nil
	}
	return i.Index(received.Message)
}

// Index stores the message under its UUID; re-indexing the same ID is an
// idempotent update. The full JSON record travels along as a stored field
// so search results can be rebuilt without touching the message store.
func (i *MessageIndex) Index(message domain.Message) error {
	source, err := json.Marshal(message)
	if err != nil {
		return err
	}

	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("room", message.Room)).
		AddField(bluge.NewTextField("text", message.Text)).
		AddField(bluge.NewTextField("user", message.User)).
		AddField(bluge.NewStoredOnlyField("_source", source))

	return i.writer.Update(doc.ID(), doc)
}

// Search returns up to limit messages of one room matching the query,
// oldest first.
func (i *MessageIndex) Search(ctx context.Context, room, query string, limit int) ([]domain.Message, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Index reader close failed", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(room).SetField("room")).
		AddMust(bluge.NewMatchQuery(query).SetField("text"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var message domain.Message
		var decodeErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_source" {
				decodeErr = json.Unmarshal(value, &message)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if decodeErr != nil {
			return nil, decodeErr
		}
		messages = append(messages, message)
	}

	sort.Slice(messages, func(a, b int) bool {
		return messages[a].CreatedAt.Before(messages[b].CreatedAt)
	})
	return messages, nil
}
