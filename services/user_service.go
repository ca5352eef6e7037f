package services

import (
	"bubble/domain"
	"bubble/repositories"
)

type IUserService interface {
	SetDisplayName(email, displayName string) (domain.UserProfile, error)
	GetProfile(email string) (domain.UserProfile, error)
}

type UserService struct {
	users repositories.IUserRepository
}

func NewUserService(users repositories.IUserRepository) *UserService {
	return &UserService{users: users}
}

// SetDisplayName upserts: the profile is created when the identity is seen
// for the first time, updated otherwise.
func (s *UserService) SetDisplayName(email, displayName string) (domain.UserProfile, error) {
	return s.users.Upsert(email, displayName)
}

// GetProfile propagates ErrProfileNotFound for unknown identities.
func (s *UserService) GetProfile(email string) (domain.UserProfile, error) {
	return s.users.GetByEmail(email)
}
