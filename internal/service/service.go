package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/repository"
	apperrors "github.com/hrportal/attendance-service/pkg/util"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func clockOrDefault(now Clock) Clock {
	if now == nil {
		return time.Now
	}
	return now
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// notFound turns a repository miss into a 404 for the named resource and
// passes every other error through.
func notFound(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// publish fires an event and logs handler failures without failing the
// caller.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
	}
}
