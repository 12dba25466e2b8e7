package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crewdesk_backend/internal/common"
)

// MockNotificationRepository is a mock type for notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) Drain(ctx context.Context, sessionID string) ([]Notification, error) {
	args := m.Called(ctx, sessionID)
	var notifications []Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]Notification)
	}
	return notifications, args.Error(1)
}

func (m *MockNotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type notificationServiceTestSuite struct {
	service  Service
	mockRepo *MockNotificationRepository
}

func setupNotificationServiceTestSuite(t *testing.T) *notificationServiceTestSuite {
	mockRepo := new(MockNotificationRepository)
	t.Cleanup(func() { mockRepo.AssertExpectations(t) })
	return &notificationServiceTestSuite{
		service:  NewService(mockRepo, zap.NewNop()),
		mockRepo: mockRepo,
	}
}

func TestNotificationService_ForSession_Persists(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)

	ts.mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *Notification) bool {
		return n.SessionID == "sess-1" &&
			n.Variant == VariantDestructive &&
			n.Title == "Error loading profile" &&
			n.Description == "Please try again later" &&
			!n.CreatedAt.IsZero()
	})).Return(nil).Once()

	ts.service.ForSession("sess-1").Notify(context.Background(), Message{
		Variant:     VariantDestructive,
		Title:       "Error loading profile",
		Description: "Please try again later",
	})
}

func TestNotificationService_ForSession_SurvivesCancelledContext(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ts.mockRepo.On("Create", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), mock.Anything).
		Return(nil).Once()

	ts.service.ForSession("sess-1").Notify(ctx, Message{Title: "Avatar updated"})
}

func TestNotificationService_ForSession_SwallowsErrors(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ts.mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	assert.NotPanics(t, func() {
		ts.service.ForSession("sess-1").Notify(context.Background(), Message{Title: "x"})
	})
}

func TestNotificationService_Drain(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	queued := []Notification{{Title: "a"}, {Title: "b"}}
	ts.mockRepo.On("Drain", ctx, "sess-1").Return(queued, nil).Once()

	got, err := ts.service.Drain(ctx, "sess-1")

	require.NoError(t, err)
	assert.Equal(t, queued, got)
}

func TestNotificationService_Drain_EmptyIsNotNil(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	ts.mockRepo.On("Drain", ctx, "sess-1").Return(nil, nil).Once()

	got, err := ts.service.Drain(ctx, "sess-1")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNotificationService_Drain_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	ts.mockRepo.On("Drain", ctx, "sess-1").Return(nil, errors.New("repo error")).Once()

	got, err := ts.service.Drain(ctx, "sess-1")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, common.ErrInternalServer)
}

func TestNotificationService_PurgeOlderThan(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)
	ts.mockRepo.On("DeleteOlderThan", ctx, cutoff).Return(int64(3), nil).Once()

	count, err := ts.service.PurgeOlderThan(ctx, cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
