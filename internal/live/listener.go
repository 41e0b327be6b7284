package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Change is the payload the books trigger sends with every NOTIFY.
type Change struct {
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
	Op     string `json:"op"`
}

// Notifier receives the owner of every changed book. NotifyAll refreshes every
// subscriber after notifications may have been missed.
type Notifier interface {
	Notify(ctx context.Context, userID string)
	NotifyAll(ctx context.Context)
}

// ConnectFunc opens the dedicated connection a Listener blocks on.
type ConnectFunc func(ctx context.Context) (*pgx.Conn, error)

// Listener forwards Postgres notifications on one channel to a Notifier.
type Listener struct {
	connect ConnectFunc
	channel string
	sink    Notifier
	logger  *slog.Logger
	delay   time.Duration
}

// NewListener creates a listener on channel. delay is the pause between reconnect attempts.
func NewListener(connect ConnectFunc, channel string, sink Notifier, logger *slog.Logger, delay time.Duration) *Listener {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Listener{connect: connect, channel: channel, sink: sink, logger: logger, delay: delay}
}

// Run listens until ctx is done, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("live listener disconnected",
			slog.String("channel", l.channel),
			slog.String("error", errString(err)),
			slog.Duration("retry_in", l.delay))

		t := time.NewTimer(l.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (l *Listener) session(ctx context.Context) error {
	conn, err := l.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.ready(ctx)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.Handle(ctx, n.Payload)
	}
}

// ready runs once LISTEN is active. Changes made while the connection was down
// produced no notification, so every open stream gets a fresh snapshot.
func (l *Listener) ready(ctx context.Context) {
	l.logger.Info("live listener ready", slog.String("channel", l.channel))
	l.sink.NotifyAll(ctx)
}

// Handle decodes one notification payload and notifies the book's owner.
func (l *Listener) Handle(ctx context.Context, payload string) {
	var ch Change
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		l.logger.Warn("live payload rejected",
			slog.String("payload", payload),
			slog.String("error", err.Error()))
		return
	}
	if ch.UserID == "" {
		l.logger.Warn("live payload without user", slog.String("payload", payload))
		return
	}
	l.logger.Debug("book changed",
		slog.String("user_id", ch.UserID),
		slog.String("book_id", ch.BookID),
		slog.String("op", ch.Op))
	l.sink.Notify(ctx, ch.UserID)
}

func errString(err error) string {
	if err == nil {
		return "connection closed"
	}
	return err.Error()
}
