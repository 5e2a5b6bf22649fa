package service

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/mailer"
)

// NotificationService turns domain events into email.
type NotificationService struct {
	dispatcher events.Dispatcher
	mail       mailer.Sender
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mail mailer.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mail:       mail,
		logger:     loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserOnboarded, n.handleUserOnboarded)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventAttendanceMarked, n.handleAttendanceMarked)
	n.dispatcher.Subscribe(events.EventAttendanceReviewed, n.handleAttendanceReviewed)
}

func (n *NotificationService) handleUserOnboarded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserOnboardedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("UserOnboarded",
		zap.String("user_id", event.SubjectID),
		zap.String("employee_id", payload.EmployeeID),
		zap.String("created_by", event.Actor.UserID))

	body := fmt.Sprintf(`<h2>Welcome %s,</h2>
<p>Your HR Portal account has been created with the role <b>%s</b>.</p>
<p>Employee ID: <b>%s</b><br/>Temporary password: <b>%s</b></p>
<p>Please change your password after your first login.</p>
<p>Regards,<br/>HR Portal Team</p>`,
		html.EscapeString(payload.FullName),
		html.EscapeString(payload.Role.Name()),
		html.EscapeString(payload.EmployeeID),
		html.EscapeString(payload.DefaultPassword))

	return n.send(ctx, event, payload.Email, "Welcome to HR Portal", body)
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("PasswordResetRequested", zap.String("user_id", event.SubjectID))

	link := html.EscapeString(payload.ResetLink)
	body := fmt.Sprintf(`<h2>Hello %s,</h2>
<p>We received a request to reset your password.</p>
<p>If you did not request this, please ignore this email.</p>
<p><a href="%s">Reset Password</a></p>
<p>This link will expire at %s.</p>
<p>Regards,<br/>HR Portal Team</p>`,
		html.EscapeString(payload.FullName), link, payload.ExpiresAt.UTC().Format("15:04 MST"))

	return n.send(ctx, event, payload.Email, "Reset Your Password - HR Portal", body)
}

func (n *NotificationService) handleAttendanceMarked(_ context.Context, event events.Event) error {
	n.logger.Info("AttendanceMarked",
		zap.String("user_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleAttendanceReviewed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AttendanceReviewedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("AttendanceReviewed",
		zap.String("user_id", event.SubjectID),
		zap.String("record_id", payload.RecordID),
		zap.String("status", string(payload.Status)))

	verb := "approved"
	if payload.Status == domain.AttendanceStatusRejected {
		verb = "rejected"
	}
	body := fmt.Sprintf(`<h2>Hello %s,</h2>
<p>Your attendance for <b>%s</b> has been %s.</p>
<p>Regards,<br/>HR Portal Team</p>`,
		html.EscapeString(payload.FullName), html.EscapeString(payload.Date), verb)

	return n.send(ctx, event, payload.Email, "Attendance "+verb+" - HR Portal", body)
}

func (n *NotificationService) send(ctx context.Context, event events.Event, to, subject, body string) error {
	if n.mail == nil || to == "" {
		return nil
	}
	if err := n.mail.Send(ctx, mailer.Message{To: []string{to}, Subject: subject, HTML: body}); err != nil {
		n.logger.Error("mail delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
		return err
	}
	return nil
}
