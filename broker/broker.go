// Package broker probes message-broker endpoints by opening a connection and
// holding a throwaway subscription for the duration of one round trip.
package broker

import (
	"context"
	"errors"
	"fmt"
)

// ProbeDestination is the destination subscribed to while probing. Nothing
// is ever published to it.
const ProbeDestination = "dummy-queue-for-validation"

// ErrUnreachable is wrapped by every probe failure.
var ErrUnreachable = errors.New("message broker unreachable")

// Session is an open broker connection.
type Session interface {
	Subscribe(ctx context.Context, destination string) error
	Unsubscribe() error
	Close()
}

// Connector opens sessions against a broker URL.
type Connector interface {
	Connect(ctx context.Context, url string) (Session, error)
}

// Probe connects to url, subscribes to ProbeDestination and unsubscribes
// again. Any failure, including a malformed URL, wraps ErrUnreachable.
func Probe(ctx context.Context, c Connector, url string) error {
	sess, err := c.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: connect: %w", ErrUnreachable, err)
	}
	defer sess.Close()

	if err := sess.Subscribe(ctx, ProbeDestination); err != nil {
		return fmt.Errorf("%w: subscribe %s: %w", ErrUnreachable, ProbeDestination, err)
	}
	if err := sess.Unsubscribe(); err != nil {
		return fmt.Errorf("%w: unsubscribe: %w", ErrUnreachable, err)
	}
	return nil
}
