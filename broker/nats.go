package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultTimeout bounds a probe when neither the connector nor the context
// sets a tighter limit.
const DefaultTimeout = 5 * time.Second

var errNotSubscribed = errors.New("not subscribed")

// NATSConnector opens single-shot NATS connections for probing. Reconnects
// are disabled so an unreachable server fails fast.
type NATSConnector struct {
	name    string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a NATSConnector.
type Option func(*NATSConnector)

// WithName sets the client name reported to the server.
func WithName(name string) Option {
	return func(c *NATSConnector) {
		c.name = name
	}
}

// WithTimeout sets the connect and flush timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *NATSConnector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *NATSConnector) {
		c.logger = logger
	}
}

// NewNATSConnector creates a connector with the given options.
func NewNATSConnector(opts ...Option) *NATSConnector {
	c := &NATSConnector{
		name:    "reposettings-probe",
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials url. The effective timeout is the smaller of the connector
// timeout and the time left on ctx.
func (c *NATSConnector) Connect(ctx context.Context, url string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	c.logger.Debug("Connecting to broker", "url", url, "timeout", timeout)

	conn, err := nats.Connect(url,
		nats.Name(c.name),
		nats.Timeout(timeout),
		nats.NoReconnect(),
	)
	if err != nil {
		return nil, err
	}
	return &natsSession{conn: conn, timeout: timeout}, nil
}

type natsSession struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	timeout time.Duration
}

// Subscribe registers a synchronous subscription and flushes so the server
// has processed it before returning.
func (s *natsSession) Subscribe(ctx context.Context, destination string) error {
	sub, err := s.conn.SubscribeSync(destination)
	if err != nil {
		return err
	}
	s.sub = sub

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := s.conn.LastError(); err != nil {
		return err
	}
	return nil
}

func (s *natsSession) Unsubscribe() error {
	if s.sub == nil {
		return errNotSubscribed
	}
	err := s.sub.Unsubscribe()
	s.sub = nil
	return err
}

func (s *natsSession) Close() {
	s.conn.Close()
}
