package services

import (
	"bubble/contract"
	"bubble/domain"
	"bubble/repositories"
	"bubble/runtime"
)

type IChatService interface {
	JoinRoom(connectionID, room string, sink contract.EventSink)
	SendMessage(connectionID, room, sender, text string)
	LeaveRoom(connectionID, room string)
	Disconnect(connectionID string)
	History(room string) ([]domain.Message, error)
}

// ChatService is the thin seam between the transports and the broadcast
// engine. History bypasses the engine: the HTTP route reads the store
// directly and needs no ordering relative to live broadcasts.
type ChatService struct {
	broadcaster *runtime.Broadcaster
	messages    repositories.IMessageRepository
}

func NewChatService(broadcaster *runtime.Broadcaster, messages repositories.IMessageRepository) *ChatService {
	return &ChatService{broadcaster: broadcaster, messages: messages}
}

func (s *ChatService) JoinRoom(connectionID, room string, sink contract.EventSink) {
	s.broadcaster.Join(connectionID, room, sink)
}

func (s *ChatService) SendMessage(connectionID, room, sender, text string) {
	s.broadcaster.Send(connectionID, room, sender, text)
}

func (s *ChatService) LeaveRoom(connectionID, room string) {
	s.broadcaster.Leave(connectionID, room)
}

func (s *ChatService) Disconnect(connectionID string) {
	s.broadcaster.Disconnect(connectionID)
}

func (s *ChatService) History(room string) ([]domain.Message, error) {
	return s.messages.ByRoom(room)
}
