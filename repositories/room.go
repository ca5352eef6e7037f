//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"bubble/domain"
	"bubble/errors"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IRoomRepository interface {
	Create(name string) (domain.Room, error)
	List() ([]domain.Room, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) IRoomRepository {
	return &RoomRepository{db: db}
}

func roomKey(name string) []byte {
	return []byte("room:" + name)
}

// Create persists a room if and only if the name is not taken yet.
// The existence check and the insert share one transaction, so two
// concurrent creations of the same name cannot both commit.
func (r RoomRepository) Create(name string) (domain.Room, error) {
	room := domain.Room{Name: name}
	data, err := json.Marshal(room)
	if err != nil {
		return domain.Room{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey(name))
		if err == nil {
			return errors.ErrDuplicateRoom
		}
		// Only a confirmed absence may proceed to the insert; a failed
		// read must not risk overwriting an existing room
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(roomKey(name), data)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// List returns every room in the store's natural (key) order.
func (r RoomRepository) List() ([]domain.Room, error) {
	var raw [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
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

	rooms := make([]domain.Room, 0, len(raw))
	for _, b := range raw {
		var room domain.Room
		if err = json.Unmarshal(b, &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Names is a convenience projection used by startup logging.
func Names(rooms []domain.Room) []string {
	return lo.Map(rooms, func(item domain.Room, _ int) string {
		return item.Name
	})
}
