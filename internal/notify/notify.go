// Package notify delivers verification tokens to users out of band.
//
// A Notifier performs one delivery synchronously. The Dispatcher wraps a
// Notifier so callers can hand off a token without waiting: each send runs
// in its own goroutine under a timeout and failures are only logged.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/iotconnect-core/internal/infrastructure/logging"
)

// Notifier sends a verification token to an email address.
type Notifier interface {
	SendVerification(ctx context.Context, email, token string) error
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ErrClosed is reported for sends attempted after Close.
var ErrClosed = errors.New("notify: dispatcher closed")

// defaultTimeout applies when a Dispatcher is built with a zero timeout.
const defaultTimeout = 10 * time.Second

// Dispatcher sends notifications asynchronously.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher wraps notifier. Each send is bounded by timeout.
func NewDispatcher(notifier Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SendVerification queues a verification mail and returns immediately.
func (d *Dispatcher) SendVerification(email, token string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("verification not sent", "error", ErrClosed)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.SendVerification(ctx, email, token); err != nil {
			d.logger.Error("sending verification failed", "error", err)
			return
		}
		d.logger.Debug("verification sent")
	}()
}

// Close stops accepting sends and waits for in-flight ones, or until ctx
// is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// redactedToken replaces the token in log output. Tokens are short, so no
// prefix of them is kept.
const redactedToken = "[redacted]"

// LogNotifier is used when email delivery is disabled. It records that a
// verification was issued at debug level with the token redacted. With
// revealTokens set (config email.log_tokens, development only) the raw
// token is logged so a developer can complete verify without a mail server.
type LogNotifier struct {
	logger       Logger
	revealTokens bool
}

// NewLogNotifier creates a LogNotifier writing to logger.
func NewLogNotifier(logger Logger, revealTokens bool) *LogNotifier {
	return &LogNotifier{logger: logger, revealTokens: revealTokens}
}

// SendVerification logs the verification at debug level.
func (n *LogNotifier) SendVerification(_ context.Context, email, token string) error {
	shown := redactedToken
	if n.revealTokens {
		shown = token
	}
	n.logger.Debug("verification token (email disabled)", "email", logging.Redact(email), "token", shown)
	return nil
}
