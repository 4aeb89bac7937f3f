package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// NotificationPusher delivers real-time payloads to connected clients.
// Satisfied by the websocket hub.
type NotificationPusher interface {
	SendToUser(userID uuid.UUID, payload []byte)
}

type NotificationService interface {
	// Notify stores a notification and pushes it to the user's open
	// connections. Failures are logged, never propagated: a missed
	// notification must not roll back the action that caused it.
	Notify(ctx context.Context, userID uuid.UUID, title, body string)
	NotifyMany(ctx context.Context, userIDs []uuid.UUID, title, body string)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher NotificationPusher
	log    zerolog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, pusher NotificationPusher, log zerolog.Logger) NotificationService {
	return &notificationService{repo: repo, pusher: pusher, log: log}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, title, body string) {
	n := model.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to store notification")
		return
	}
	s.push(n)
}

func (s *notificationService) NotifyMany(ctx context.Context, userIDs []uuid.UUID, title, body string) {
	if len(userIDs) == 0 {
		return
	}
	notifications := make([]model.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, model.Notification{UserID: id, Title: title, Body: body})
	}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		s.log.Error().Err(err).Int("recipients", len(userIDs)).Msg("failed to store notifications")
		return
	}
	for _, n := range notifications {
		s.push(n)
	}
}

func (s *notificationService) push(n model.Notification) {
	if s.pusher == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode notification payload")
		return
	}
	s.pusher.SendToUser(n.UserID, payload)
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, page, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	err := s.repo.MarkRead(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
