package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crewdesk_backend/internal/common"
)

// Notifier shows a toast. Delivery is best effort: implementations never
// report failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg Message)

func (f NotifierFunc) Notify(ctx context.Context, msg Message) { f(ctx, msg) }

// Service queues toasts per browser session until the front-end drains them.
type Service interface {
	ForSession(sessionID string) Notifier
	Drain(ctx context.Context, sessionID string) ([]Notification, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type serviceImpl struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a notification service backed by repo.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &serviceImpl{repo: repo, logger: logger.Named("NotificationService"), now: time.Now}
}

func (s *serviceImpl) ForSession(sessionID string) Notifier {
	return NotifierFunc(func(ctx context.Context, msg Message) {
		n := &Notification{
			SessionID:   sessionID,
			Variant:     msg.Variant,
			Title:       msg.Title,
			Description: msg.Description,
			CreatedAt:   s.now().UTC(),
		}
		// The caller may already be cancelled (e.g. a request that finished);
		// the toast should still be queued.
		if err := s.repo.Create(context.WithoutCancel(ctx), n); err != nil {
			s.logger.Error("Failed to queue notification",
				zap.String("sessionID", sessionID),
				zap.String("title", msg.Title),
				zap.Error(err))
			return
		}
		s.logger.Debug("Notification queued", zap.String("sessionID", sessionID), zap.String("title", msg.Title))
	})
}

func (s *serviceImpl) Drain(ctx context.Context, sessionID string) ([]Notification, error) {
	notifications, err := s.repo.Drain(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to drain notifications", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	return notifications, nil
}

func (s *serviceImpl) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to purge notifications", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, err
	}
	return count, nil
}
