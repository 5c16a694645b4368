package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() NewNotificationParams {
	return NewNotificationParams{
		ID:          NotificationID("n-1"),
		Type:        NotificationTypeRiskAlert,
		RecipientID: RecipientID("parent-1"),
		Channel:     ChannelEmail,
		Address:     "parent@example.ro",
		Subject:     "Alerta de risc",
		Body:        "Elevul a intrat in registrul de risc.",
		StudentID:   "student-1",
	}
}

func TestNewNotificationDefaults(t *testing.T) {
	n, err := NewNotification(validParams())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, PriorityHigh, n.Priority, "risk alerts default to high priority")
	assert.Equal(t, 3, n.MaxRetries)
	assert.Zero(t, n.RetryCount)
	assert.Nil(t, n.SentAt)
	assert.Nil(t, n.DeliveredAt)
}

func TestNewNotificationValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*NewNotificationParams)
		wantErr error
	}{
		{"empty id", func(p *NewNotificationParams) { p.ID = "" }, ErrInvalidNotificationID},
		{"bad type", func(p *NewNotificationParams) { p.Type = "newsletter" }, ErrInvalidNotificationType},
		{"empty recipient", func(p *NewNotificationParams) { p.RecipientID = "" }, ErrInvalidRecipientID},
		{"bad channel", func(p *NewNotificationParams) { p.Channel = "pigeon" }, ErrInvalidChannel},
		{"empty address", func(p *NewNotificationParams) { p.Address = "" }, ErrEmptyAddress},
		{"empty body", func(p *NewNotificationParams) { p.Body = "" }, ErrEmptyBody},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			_, err := NewNotification(params)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNotificationDeliveryLifecycle(t *testing.T) {
	n, err := NewNotification(validParams())
	require.NoError(t, err)

	require.NoError(t, n.MarkSending())
	assert.Equal(t, StatusSending, n.Status)
	require.NotNil(t, n.SentAt)

	require.NoError(t, n.MarkDelivered())
	assert.Equal(t, StatusDelivered, n.Status)
	require.NotNil(t, n.DeliveredAt)
	assert.True(t, n.Status.IsFinal())

	// Delivered is terminal.
	assert.ErrorIs(t, n.MarkSending(), ErrInvalidStatusTransition)
}

func TestNotificationRetryBudget(t *testing.T) {
	n, err := NewNotification(validParams())
	require.NoError(t, err)

	for i := 1; i <= n.MaxRetries; i++ {
		require.NoError(t, n.MarkSending())
		require.NoError(t, n.MarkFailed("smtp timeout"))
		assert.Equal(t, i, n.RetryCount)

		if i < n.MaxRetries {
			assert.True(t, n.CanRetry())
			require.NoError(t, n.ResetForRetry())
			assert.Equal(t, StatusPending, n.Status)
			assert.Nil(t, n.SentAt)
		}
	}

	assert.False(t, n.CanRetry())
	assert.ErrorIs(t, n.ResetForRetry(), ErrMaxRetriesExceeded)
	assert.Equal(t, "smtp timeout", n.LastError)
}

func TestNotificationInvalidTransitions(t *testing.T) {
	n, err := NewNotification(validParams())
	require.NoError(t, err)

	// Pending notifications were never sent, so they cannot complete.
	assert.ErrorIs(t, n.MarkDelivered(), ErrInvalidStatusTransition)
	assert.ErrorIs(t, n.MarkFailed("x"), ErrInvalidStatusTransition)

	// Pending can still be skipped.
	require.NoError(t, n.MarkSkipped("recipient has no phone number"))
	assert.Equal(t, StatusSkipped, n.Status)
	assert.ErrorIs(t, n.MarkSkipped("twice"), ErrInvalidStatusTransition)
}

func TestChannelCapabilities(t *testing.T) {
	assert.True(t, ChannelEmail.SupportsRichContent())
	assert.False(t, ChannelSMS.SupportsRichContent())
	assert.Equal(t, 480, ChannelSMS.MaxBodyLength())
	assert.False(t, Channel("fax").IsValid())
}

func TestDeliveryResults(t *testing.T) {
	ok := NewSuccessResult(ChannelEmail, "msg-1")
	assert.True(t, ok.Success)
	assert.Equal(t, "msg-1", ok.MessageID)
	assert.False(t, ok.DeliveredAt.IsZero())

	fail := NewFailureResult(ChannelSMS, ErrEmptyAddress, false)
	assert.False(t, fail.Success)
	assert.False(t, fail.Retryable)
	assert.ErrorIs(t, fail.Error, ErrEmptyAddress)
}

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityUrgent.ShouldSendImmediately())
	assert.True(t, PriorityHigh.ShouldSendImmediately())
	assert.False(t, PriorityNormal.ShouldSendImmediately())
	assert.Equal(t, PriorityUrgent, NotificationTypePasswordReset.DefaultPriority())
	assert.Equal(t, PriorityNormal, NotificationTypeMonthlyAbsenceReport.DefaultPriority())
}
