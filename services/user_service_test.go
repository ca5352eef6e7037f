package services

import (
	"bubble/domain"
	"bubble/errors"
	"bubble/mocks"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestUserService_SetDisplayName(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	usersMock := mocks.NewMockIUserRepository(ctrl)
	usersMock.EXPECT().
		Upsert("alice@mail.io", "Alice").
		Return(domain.UserProfile{Email: "alice@mail.io", DisplayName: "Alice"}, nil)

	service := NewUserService(usersMock)

	profile, err := service.SetDisplayName("alice@mail.io", "Alice")
	req.NoError(err)
	req.Equal("Alice", profile.DisplayName)
}

func TestUserService_GetProfile_Unknown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	usersMock := mocks.NewMockIUserRepository(ctrl)
	usersMock.EXPECT().
		GetByEmail("nobody@mail.io").
		Return(domain.UserProfile{}, errors.ErrProfileNotFound)

	service := NewUserService(usersMock)

	_, err := service.GetProfile("nobody@mail.io")
	req.ErrorIs(err, errors.ErrProfileNotFound)
}
