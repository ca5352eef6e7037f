package repositories

import (
	"bubble/domain"
	"bubble/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_Upsert_Creates_Then_Updates(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	// Given no profile exists
	_, err := repository.GetByEmail("a@x.com")
	req.ErrorIs(err, errors.ErrProfileNotFound)

	// When a profile is created
	profile, err := repository.Upsert("a@x.com", "Alice")
	req.NoError(err)
	req.Equal(domain.UserProfile{Email: "a@x.com", DisplayName: "Alice"}, profile)

	// And updated with a new display name
	profile, err = repository.Upsert("a@x.com", "Alice L.")
	req.NoError(err)

	// Then the stored state reflects the last write only
	stored, err := repository.GetByEmail("a@x.com")
	req.NoError(err)
	req.Equal(profile, stored)
	req.Equal("Alice L.", stored.DisplayName)
}

func TestUserProfile_Label_Falls_Back_To_Identity(t *testing.T) {
	req := require.New(t)

	req.Equal("Alice", domain.UserProfile{Email: "a@x.com", DisplayName: "Alice"}.Label())
	req.Equal("a@x.com", domain.UserProfile{Email: "a@x.com"}.Label())
}
