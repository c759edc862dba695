package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/events"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/repository"
)

// NotificationStore описывает хранилище уведомлений.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService сохраняет события переходов как уведомления и
// отдаёт их пользователю. Реализует events.Sink: подключается к шине
// рядом с WebSocket доставкой, так что офлайн-пользователь прочитает
// событие позже.
type NotificationService struct {
	store NotificationStore
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

type notificationPayload struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Deliver реализует events.Sink: событие сохраняется как непрочитанное
// уведомление получателя.
func (s *NotificationService) Deliver(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(notificationPayload{Type: e.Type, Data: e.Data})
	if err != nil {
		return fmt.Errorf("notification: не удалось сериализовать событие: %w", err)
	}
	return s.store.Create(ctx, &models.Notification{
		UserID:  e.Recipient,
		Payload: payload,
	})
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, userID, limit, offset, unreadOnly)
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkAsRead помечает уведомление прочитанным. Чужое уведомление
// прочитать нельзя.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotificationNotFound {
			return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return err
	}
	if n.UserID != userID {
		return apperror.ErrForbidden
	}
	return s.store.MarkAsRead(ctx, id)
}

// MarkAllAsRead помечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.store.MarkAllAsRead(ctx, userID)
}
