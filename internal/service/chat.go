package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/domain"
	"github.com/4sizn/animal-zoom-sub000/internal/repository"
)

// MaxMessageRunes 是单条聊天消息的最大字符数
const MaxMessageRunes = 2000

// maxHistoryPage 是一次历史查询允许的最大条数
const maxHistoryPage = 200

// ChatService 负责聊天消息的校验、持久化和最近消息回放。
type ChatService struct {
	roomRepo     repository.RoomRepository
	messageRepo  repository.MessageRepository
	historyLimit int
}

// NewChatService 创建 ChatService 实例。historyLimit 是加入房间时回放的消息条数。
func NewChatService(roomRepo repository.RoomRepository, messageRepo repository.MessageRepository, historyLimit int) *ChatService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for ChatService")
	}
	if messageRepo == nil {
		panic("MessageRepository cannot be nil for ChatService")
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatService{roomRepo: roomRepo, messageRepo: messageRepo, historyLimit: historyLimit}
}

// SendMessage 校验并保存一条聊天消息，返回保存后的记录。
func (s *ChatService) SendMessage(ctx context.Context, senderID uint, senderName, code, text string) (*domain.ChatMessage, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": senderID, "room_code": code})

	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxMessageRunes {
		return nil, ErrInvalidMessage
	}

	room, err := s.activeRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		MessageID:  ulid.Make().String(),
		RoomID:     room.ID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    text,
		CreatedAt:  time.Now(),
	}
	if err := s.messageRepo.Save(ctx, msg); err != nil {
		logCtx.WithError(err).Error("Failed to save chat message")
		return nil, ErrInternalServer
	}
	if err := s.roomRepo.TouchActivity(ctx, room.ID, msg.CreatedAt); err != nil {
		logCtx.WithError(err).Warn("Failed to refresh room activity after chat message")
	}
	return msg, nil
}

// RecentMessages 返回房间最近的消息 (从旧到新)，条数为默认回放条数
func (s *ChatService) RecentMessages(ctx context.Context, roomID uint) ([]domain.ChatMessage, error) {
	msgs, err := s.messageRepo.ListRecent(ctx, roomID, s.historyLimit)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to load chat history")
		return nil, ErrInternalServer
	}
	return msgs, nil
}

// History 按房间码查询最近 limit 条消息，用于页面刷新后的恢复
func (s *ChatService) History(ctx context.Context, code string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	if limit > maxHistoryPage {
		limit = maxHistoryPage
	}
	room, err := s.activeRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListRecent(ctx, room.ID, limit)
	if err != nil {
		logrus.WithField("room_code", code).WithError(err).Error("Failed to load chat history")
		return nil, ErrInternalServer
	}
	return msgs, nil
}

func (s *ChatService) activeRoom(ctx context.Context, code string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, mapRepoError(err, ErrRoomNotFound)
	}
	if !room.IsActive() {
		return nil, ErrRoomNotFound
	}
	return room, nil
}
