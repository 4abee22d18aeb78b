package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

// ErrTimerUnavailable is returned when an arm or cancel could not be
// persisted. The in-memory timer is still updated.
var ErrTimerUnavailable = errors.New("scheduler: timer unavailable")

// Handler receives fired timers. It runs on its own goroutine.
type Handler func(ctx context.Context, id string, kind vpnsched.TimerKind)

// timerKey identifies one armed timer. A schedule owns at most one timer
// per kind.
type timerKey struct {
	id   string
	kind vpnsched.TimerKind
}

// timerEvent is a heap entry.
type timerEvent struct {
	key timerKey
	at  time.Time
}
