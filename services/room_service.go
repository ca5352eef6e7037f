package services

import (
	"bubble/domain"
	"bubble/repositories"
)

type IRoomService interface {
	Create(name string) (domain.Room, error)
	List() ([]domain.Room, error)
}

type RoomService struct {
	rooms repositories.IRoomRepository
}

func NewRoomService(rooms repositories.IRoomRepository) *RoomService {
	return &RoomService{rooms: rooms}
}

// Create persists a new room; duplicates propagate ErrDuplicateRoom.
func (s *RoomService) Create(name string) (domain.Room, error) {
	return s.rooms.Create(name)
}

func (s *RoomService) List() ([]domain.Room, error) {
	return s.rooms.List()
}
