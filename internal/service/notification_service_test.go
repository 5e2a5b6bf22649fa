package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/mailer"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestNotificationServiceSendsMail(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sender := &recordingSender{}
	NewNotificationService(dispatcher, sender, nil).RegisterHandlers()
	ctx := context.Background()
	actor := events.Actor{UserID: "u001", Role: domain.RoleHR}

	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventUserOnboarded, "u010", actor, fixedNow,
		events.UserOnboardedPayload{
			Email:           "nina@example.com",
			FullName:        "Nina <New>",
			EmployeeID:      "EMP1010",
			Role:            domain.RoleEmployee,
			DefaultPassword: "1995_EMP1010",
		})))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventPasswordResetRequested, "u010", actor, fixedNow,
		events.PasswordResetRequestedPayload{
			Email:     "nina@example.com",
			FullName:  "Nina New",
			ResetLink: "https://hr.example.com/reset/abc",
			ExpiresAt: fixedNow.Add(15 * time.Minute),
		})))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventAttendanceMarked, "u010", actor, fixedNow,
		events.AttendanceMarkedPayload{RecordID: "a001"})))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventAttendanceReviewed, "u010", actor, fixedNow,
		events.AttendanceReviewedPayload{
			RecordID: "a001",
			Date:     "2024-06-10",
			Status:   domain.AttendanceStatusRejected,
			Email:    "nina@example.com",
			FullName: "Nina New",
		})))

	require.Len(t, sender.sent, 3)
	welcome := sender.sent[0]
	assert.Equal(t, []string{"nina@example.com"}, welcome.To)
	assert.Contains(t, welcome.HTML, "1995_EMP1010")
	assert.Contains(t, welcome.HTML, "Nina &lt;New&gt;")

	assert.Contains(t, sender.sent[1].HTML, `href="https://hr.example.com/reset/abc"`)
	assert.Equal(t, "Attendance rejected - HR Portal", sender.sent[2].Subject)
}

func TestNotificationServiceReportsDeliveryFailure(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sendErr := errors.New("smtp down")
	NewNotificationService(dispatcher, &recordingSender{err: sendErr}, nil).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.NewEvent(events.EventAttendanceReviewed, "u010",
		events.Actor{UserID: "u001"}, fixedNow,
		events.AttendanceReviewedPayload{Email: "nina@example.com", Status: domain.AttendanceStatusApproved}))
	assert.ErrorIs(t, err, sendErr)
}
