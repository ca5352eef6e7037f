package repositories

import (
	"bubble/domain"
	"bubble/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomRepository_Create_Then_List(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	// When two distinct rooms are created
	created, err := repository.Create("general")
	req.NoError(err)
	req.Equal(domain.Room{Name: "general"}, created)

	_, err = repository.Create("random")
	req.NoError(err)

	// Then both are listed in key order
	rooms, err := repository.List()
	req.NoError(err)
	req.Equal([]domain.Room{{Name: "general"}, {Name: "random"}}, rooms)
}

func TestRoomRepository_Create_Rejects_Duplicate(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	_, err := repository.Create("general")
	req.NoError(err)

	// When the same name is created again
	_, err = repository.Create("general")

	// Then the duplicate is rejected and no second record exists
	req.ErrorIs(err, errors.ErrDuplicateRoom)

	rooms, err := repository.List()
	req.NoError(err)
	req.Len(rooms, 1)
}

func TestRoomRepository_Create_Propagates_Store_Errors(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewRoomRepository(db)

	req.NoError(db.Close())

	// When the store cannot be read, the error surfaces instead of
	// being mistaken for a free name
	_, err := repository.Create("general")
	req.Error(err)
	req.NotErrorIs(err, errors.ErrDuplicateRoom)
}

func TestRoomRepository_List_Empty(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	rooms, err := repository.List()
	req.NoError(err)
	req.Empty(rooms)
}
