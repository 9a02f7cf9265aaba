package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cygnusgroup/backoffice/core"
)

const (
	ActionLogin   = "login"
	EntitySession = "session"
	DetailSignIn  = "signed in"
)

var _ core.ActivityRecorder = (*AsyncRecorder)(nil)

// AsyncRecorder writes audit rows in the background. Record never blocks on
// the underlying store and never reports its failures.
type AsyncRecorder struct {
	next    core.ActivityRecorder
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncRecorder(next core.ActivityRecorder, timeout time.Duration, logger *zap.Logger) *AsyncRecorder {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncRecorder{next: next, timeout: timeout, logger: logger}
}

func (a *AsyncRecorder) Record(ctx context.Context, activity *core.Activity) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Warn("activity dropped after shutdown", zap.String("user_id", activity.ProfileID))
		return nil
	}

	row := *activity
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.next.Record(ctx, &row); err != nil {
			a.logger.Warn("activity record failed",
				zap.String("user_id", row.ProfileID),
				zap.String("action", row.Action),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Close stops accepting records and waits for in-flight writes.
func (a *AsyncRecorder) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}

func loginActivity(p *core.Profile) *core.Activity {
	return &core.Activity{
		ProfileID:   p.ID,
		DisplayName: p.DisplayName,
		Action:      ActionLogin,
		Entity:      EntitySession,
		Detail:      DetailSignIn,
	}
}
