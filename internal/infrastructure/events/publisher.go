package events

import "context"

// Subjects for account lifecycle events.
const (
	SubjectUserRegistered      = "user.registered"
	SubjectUserPasswordChanged = "user.password_changed"
)

// UserEvent is the payload published on account lifecycle subjects.
type UserEvent struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Publisher emits fire-and-forget account events. Implementations must not
// fail the surrounding operation; errors are returned for logging only.
type Publisher interface {
	Publish(ctx context.Context, subject string, event UserEvent) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, UserEvent) error { return nil }
