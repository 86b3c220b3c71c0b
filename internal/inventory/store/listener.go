package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	listenRetryMin = time.Second
	listenRetryMax = 30 * time.Second
)

// Listener forwards NotifyChannel notifications from other processes to a callback.
type Listener struct {
	dsn      string
	onChange func(ctx context.Context)
}

func NewListener(dsn string, onChange func(ctx context.Context)) *Listener {
	return &Listener{dsn: dsn, onChange: onChange}
}

// Run listens until ctx is cancelled, reconnecting with backoff when the
// connection drops.
func (l *Listener) Run(ctx context.Context) {
	wait := listenRetryMin

	for ctx.Err() == nil {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}

		slog.Warn("inventory listener disconnected", "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		wait = min(wait*2, listenRetryMax)
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connecting listener: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listening on %s: %w", NotifyChannel, err)
	}

	slog.Info("listening for inventory changes", "channel", NotifyChannel)

	// A change may have been missed while disconnected.
	l.onChange(ctx)

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return fmt.Errorf("waiting for notification: %w", err)
		}

		l.onChange(ctx)
	}
}
