package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	emailsvc "listinghub-backend/internal/application/emails"
	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/messaging"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("Notification not found")

// Notice is one message to a content owner.
type Notice struct {
	UserID  uuid.UUID
	Email   string
	Type    string
	Subject string
	Message string
	Data    map[string]interface{}
	Event   *messaging.ReviewDecidedEvent
}

// DefaultDeliverTimeout bounds one background delivery (email plus event).
const DefaultDeliverTimeout = 20 * time.Second

// Service stores in-app notifications and fans them out to email and the event queue.
type Service struct {
	DB             *gorm.DB
	Email          emailsvc.Sender
	Publisher      messaging.Publisher
	DeliverTimeout time.Duration

	wg sync.WaitGroup
}

// Record inserts the notification row using tx so it commits with the status change.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, n Notice) error {
	data := datatypes.JSON([]byte("{}"))
	if len(n.Data) > 0 {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return err
		}
		data = datatypes.JSON(b)
	}
	row := &domain.Notification{
		UserID:  n.UserID,
		Type:    n.Type,
		Message: n.Message,
		Data:    data,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("Failed to create notification: %w", err)
	}
	return nil
}

// Deliver runs after commit on its own goroutine, detached from the request's cancellation.
// Failures are logged only. Wait blocks until pending deliveries finish.
func (s *Service) Deliver(ctx context.Context, n Notice) {
	if s == nil || (s.Email == nil && s.Publisher == nil) {
		return
	}
	timeout := s.DeliverTimeout
	if timeout <= 0 {
		timeout = DefaultDeliverTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.deliver(ctx, n)
	}()
}

// Wait blocks until every delivery started by Deliver has returned.
func (s *Service) Wait() {
	if s != nil {
		s.wg.Wait()
	}
}

func (s *Service) deliver(ctx context.Context, n Notice) {
	if s.Email != nil && n.Email != "" {
		subject := n.Subject
		if subject == "" {
			subject = "Update on your submission"
		}
		if err := s.Email.SendReviewDecision(ctx, n.Email, subject, n.Message); err != nil {
			log.Error().Err(err).Str("user_id", n.UserID.String()).Msg("notifications: email delivery failed")
		}
	}
	if s.Publisher != nil && n.Event != nil {
		if err := s.Publisher.Publish(ctx, messaging.QueueReviewDecided, n.Event); err != nil {
			log.Error().Err(err).Str("entity", n.Event.Entity).Int64("entity_id", n.Event.EntityID).Msg("notifications: event publish failed")
		}
	}
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []domain.Notification
	if err := q.Order("created_at DESC").Order("notification_id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch notifications: %w", err)
	}
	return out, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID uuid.UUID, notificationID int64) error {
	res := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("Failed to update notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
