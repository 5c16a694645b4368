package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/domain/notification"
)

// fakeSender records calls and returns a configurable result.
type fakeSender struct {
	calls  int
	result notification.DeliveryResult
}

func (f *fakeSender) Send(_ context.Context, n *notification.Notification) notification.DeliveryResult {
	f.calls++
	if f.result.Channel == "" {
		return notification.NewSuccessResult(n.Channel, "fake-1")
	}
	return f.result
}

// fakeStore is an in-memory notification.Repository.
type fakeStore struct {
	pending   []*notification.Notification
	updated   []*notification.Notification
	updateErr error
}

func (f *fakeStore) GetByID(_ context.Context, id notification.NotificationID) (*notification.Notification, error) {
	for _, n := range f.pending {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, notification.ErrNotificationNotFound
}

func (f *fakeStore) GetPendingRetries(_ context.Context, limit int) ([]*notification.Notification, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	return f.pending[:limit], nil
}

func (f *fakeStore) Save(_ context.Context, _ *notification.Notification) error { return nil }

func (f *fakeStore) Update(_ context.Context, n *notification.Notification) error {
	f.updated = append(f.updated, n)
	return f.updateErr
}

func newTestNotification(t *testing.T, id string, channel notification.Channel) *notification.Notification {
	t.Helper()
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(id),
		Type:        notification.NotificationTypeRiskAlert,
		RecipientID: "parent-1",
		Channel:     channel,
		Address:     "parent@example.ro",
		Subject:     "Alerta",
		Body:        "Continut",
	})
	require.NoError(t, err)
	return n
}

// failedNotification builds a notification that already burned one attempt.
func failedNotification(t *testing.T, id string) *notification.Notification {
	t.Helper()
	n := newTestNotification(t, id, notification.ChannelEmail)
	require.NoError(t, n.MarkSending())
	require.NoError(t, n.MarkFailed("gateway timeout"))
	return n
}

func TestChannelRouterRoutesByChannel(t *testing.T) {
	emailSender := &fakeSender{}
	smsSender := &fakeSender{}
	router := NewChannelRouter(emailSender, smsSender, nil)

	res := router.Send(context.Background(), newTestNotification(t, "n-1", notification.ChannelEmail))
	assert.True(t, res.Success)
	assert.Equal(t, 1, emailSender.calls)
	assert.Equal(t, 0, smsSender.calls)

	res = router.Send(context.Background(), newTestNotification(t, "n-2", notification.ChannelSMS))
	assert.True(t, res.Success)
	assert.Equal(t, 1, smsSender.calls)
}

func TestChannelRouterDisabledChannel(t *testing.T) {
	router := NewChannelRouter(&fakeSender{}, nil, nil)

	res := router.Send(context.Background(), newTestNotification(t, "n-1", notification.ChannelSMS))
	assert.False(t, res.Success)
	assert.False(t, res.Retryable, "disabled channels must not queue retries")
	require.Error(t, res.Error)
}

func TestChannelRouterUnknownChannel(t *testing.T) {
	router := NewChannelRouter(&fakeSender{}, &fakeSender{}, nil)

	n := newTestNotification(t, "n-1", notification.ChannelEmail)
	n.Channel = "fax"

	res := router.Send(context.Background(), n)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Error, notification.ErrInvalidChannel)
}

func TestConsoleSenderAlwaysSucceeds(t *testing.T) {
	sender := NewConsoleSender(nil)

	res := sender.Send(context.Background(), newTestNotification(t, "n-1", notification.ChannelEmail))
	assert.True(t, res.Success)
	assert.Equal(t, "console-n-1", res.MessageID)
}

func TestRetryFailedDeliversAndUpdates(t *testing.T) {
	store := &fakeStore{pending: []*notification.Notification{
		failedNotification(t, "n-1"),
		failedNotification(t, "n-2"),
	}}
	svc := NewNotificationRetryService(store, &fakeSender{}, nil)

	delivered, err := svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
	require.Len(t, store.updated, 2)

	for _, n := range store.updated {
		assert.Equal(t, notification.StatusDelivered, n.Status)
	}
}

func TestRetryFailedKeepsFailureState(t *testing.T) {
	store := &fakeStore{pending: []*notification.Notification{failedNotification(t, "n-1")}}
	sender := &fakeSender{result: notification.NewFailureResult(
		notification.ChannelEmail, errors.New("still down"), true,
	)}
	svc := NewNotificationRetryService(store, sender, nil)

	delivered, err := svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, delivered)

	require.Len(t, store.updated, 1)
	n := store.updated[0]
	assert.Equal(t, notification.StatusFailed, n.Status)
	assert.Equal(t, 2, n.RetryCount)
	assert.Equal(t, "still down", n.LastError)
}

func TestRetryFailedSkipsExhaustedBudget(t *testing.T) {
	exhausted := failedNotification(t, "n-1")
	exhausted.RetryCount = exhausted.MaxRetries

	store := &fakeStore{pending: []*notification.Notification{exhausted}}
	sender := &fakeSender{}
	svc := NewNotificationRetryService(store, sender, nil)

	delivered, err := svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Zero(t, sender.calls)
	assert.Empty(t, store.updated)
}

func TestRetryFailedHonorsContextCancellation(t *testing.T) {
	store := &fakeStore{pending: []*notification.Notification{failedNotification(t, "n-1")}}
	svc := NewNotificationRetryService(store, &fakeSender{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	delivered, err := svc.RetryFailed(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, delivered)
}

func TestIDGeneratorProducesUniqueIDs(t *testing.T) {
	gen := NewIDGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.GenerateID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
