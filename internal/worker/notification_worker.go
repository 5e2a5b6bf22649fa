package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hrportal/attendance-service/internal/mailer"
	"github.com/hrportal/attendance-service/internal/service"
)

// ErrQueueFull is returned when the mail backlog is at capacity.
var ErrQueueFull = errors.New("mail queue full")

const deliveryTimeout = 30 * time.Second

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// MailQueue hands messages to a background goroutine so request handlers
// never wait on SMTP. It implements mailer.Sender.
type MailQueue struct {
	next   mailer.Sender
	jobs   chan mailer.Message
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewMailQueue builds a queue in front of next. Call Start before use.
func NewMailQueue(next mailer.Sender, size int, logger *zap.Logger) *MailQueue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailQueue{next: next, jobs: make(chan mailer.Message, size), logger: logger}
}

// Send enqueues msg without blocking.
func (q *MailQueue) Send(_ context.Context, msg mailer.Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return errors.New("mail queue stopped")
	}
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery goroutine.
func (q *MailQueue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for msg := range q.jobs {
			q.deliver(msg)
		}
	}()
}

// Stop refuses new messages and waits for the backlog to drain or ctx to
// expire.
func (q *MailQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MailQueue) deliver(msg mailer.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := q.next.Send(ctx, msg); err != nil {
		q.logger.Error("mail delivery failed", zap.Strings("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	q.logger.Debug("mail delivered", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
}
