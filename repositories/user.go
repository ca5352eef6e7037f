//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"bubble/domain"
	"bubble/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	Upsert(email, displayName string) (domain.UserProfile, error)
	GetByEmail(email string) (domain.UserProfile, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

func userKey(email string) []byte {
	return []byte("user:" + email)
}

// Upsert creates the profile when absent and overwrites the display name
// otherwise. The returned profile is the stored state.
func (u UserRepository) Upsert(email, displayName string) (domain.UserProfile, error) {
	profile := domain.UserProfile{Email: email, DisplayName: displayName}
	data, err := json.Marshal(profile)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(email), data)
	})
	if err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}

// GetByEmail retrieves the profile stored for an identity.
// Returns ErrProfileNotFound when the identity has no profile.
func (u UserRepository) GetByEmail(email string) (domain.UserProfile, error) {
	var profile domain.UserProfile

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(email))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrProfileNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		return domain.UserProfile{}, err
	}
	return profile, nil
}
