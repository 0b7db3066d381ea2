// Package validator checks repository settings before they are saved: the
// message broker must accept a connection, the JWT expiry must be a positive
// interval with an explicit unit, and the lookup service must be reachable
// whenever bundles rely on it.
package validator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/reposettings/broker"
	"github.com/c360studio/reposettings/interval"
	"github.com/c360studio/reposettings/lookup"
	"github.com/c360studio/reposettings/settings"
)

// LookupProbeURI is resolved against the lookup service to prove it
// answers. Whether it has a mapping is irrelevant.
const LookupProbeURI = "http://example.org"

// Default probe timeouts.
const (
	DefaultBrokerTimeout = 5 * time.Second
	DefaultLookupTimeout = 5 * time.Second
)

// FinderFactory constructs a lookup client for a base URL. Construction
// fails for malformed URLs.
type FinderFactory func(baseURL string, logger *slog.Logger) (lookup.Finder, error)

// Validator validates settings input. It keeps no state between calls and
// is safe for concurrent use.
type Validator struct {
	connector     broker.Connector
	newFinder     FinderFactory
	brokerTimeout time.Duration
	lookupTimeout time.Duration
	logger        *slog.Logger
	registerer    prometheus.Registerer
	metrics       *validatorMetrics
}

// Option configures a Validator.
type Option func(*Validator)

// WithConnector sets the broker connector.
func WithConnector(c broker.Connector) Option {
	return func(v *Validator) {
		v.connector = c
	}
}

// WithFinderFactory sets how lookup clients are constructed.
func WithFinderFactory(f FinderFactory) Option {
	return func(v *Validator) {
		v.newFinder = f
	}
}

// WithBrokerTimeout bounds the broker probe.
func WithBrokerTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.brokerTimeout = d
		}
	}
}

// WithLookupTimeout bounds the lookup-service probe.
func WithLookupTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.lookupTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithMetrics registers validation metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(v *Validator) {
		v.registerer = reg
	}
}

// New creates a Validator. Without options it probes NATS brokers and HTTP
// lookup services with the default timeouts.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		brokerTimeout: DefaultBrokerTimeout,
		lookupTimeout: DefaultLookupTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.connector == nil {
		v.connector = broker.NewNATSConnector(
			broker.WithTimeout(v.brokerTimeout),
			broker.WithLogger(v.logger),
		)
	}
	if v.newFinder == nil {
		v.newFinder = func(baseURL string, logger *slog.Logger) (lookup.Finder, error) {
			return lookup.New(baseURL, logger)
		}
	}

	m, err := newValidatorMetrics(v.registerer)
	if err != nil {
		return nil, err
	}
	v.metrics = m

	return v, nil
}

// ValidateBroker connects to brokerURL, subscribes to the probe destination
// and unsubscribes. Every failure is reported as BrokerUnreachable.
func (v *Validator) ValidateBroker(ctx context.Context, brokerURL string) error {
	if fe := v.validateBroker(ctx, v.logger, brokerURL); fe != nil {
		return fe
	}
	return nil
}

func (v *Validator) validateBroker(ctx context.Context, logger *slog.Logger, brokerURL string) *FieldError {
	fe := v.probeBroker(ctx, logger, brokerURL)
	v.metrics.recordCheck(settings.FieldBrokerURL, fe)
	return fe
}

func (v *Validator) probeBroker(ctx context.Context, logger *slog.Logger, brokerURL string) *FieldError {
	unreachable := func(err error) *FieldError {
		logger.Warn("Broker probe failed", "broker_url", brokerURL, "error", err)
		return &FieldError{
			Field: settings.FieldBrokerURL,
			Kind:  KindBrokerUnreachable,
			Value: brokerURL,
			Err:   err,
		}
	}

	// An empty URL would make most clients fall back to their default
	// server, which is not what the operator entered.
	if strings.TrimSpace(brokerURL) == "" {
		return unreachable(broker.ErrUnreachable)
	}

	probeCtx, cancel := context.WithTimeout(ctx, v.brokerTimeout)
	defer cancel()

	start := time.Now()
	err := broker.Probe(probeCtx, v.connector, brokerURL)
	v.metrics.observeProbe("broker", start)
	if err != nil {
		return unreachable(err)
	}

	logger.Debug("Broker probe succeeded", "broker_url", brokerURL, "duration", time.Since(start))
	return nil
}

// ValidateExpiry checks raw as a JWT expiry expression and returns the
// parsed interval.
func (v *Validator) ValidateExpiry(raw string) (interval.Interval, error) {
	iv, fe := v.validateExpiry(v.logger, raw)
	if fe != nil {
		return interval.Interval{}, fe
	}
	return iv, nil
}

func (v *Validator) validateExpiry(logger *slog.Logger, raw string) (interval.Interval, *FieldError) {
	iv, err := interval.Parse(raw)
	if err != nil {
		fe := &FieldError{
			Field: settings.FieldJWTExpiry,
			Kind:  expiryKind(err),
			Value: interval.Normalize(raw),
			Err:   err,
		}
		logger.Debug("Expiry rejected", "jwt_expiry", fe.Value, "kind", fe.Kind)
		v.metrics.recordCheck(settings.FieldJWTExpiry, fe)
		return interval.Interval{}, fe
	}
	v.metrics.recordCheck(settings.FieldJWTExpiry, nil)
	if ttl, err := iv.Duration(time.Now()); err == nil {
		logger.Debug("Expiry accepted", "jwt_expiry", iv.Expression, "ttl", ttl)
	} else {
		logger.Debug("Expiry accepted without a fixed lifetime", "jwt_expiry", iv.Expression, "error", err)
	}
	return iv, nil
}

// ValidateLookupService checks the lookup-service URL. An empty URL is only
// acceptable when no bundles depend on it; otherwise the service must parse
// as a URL and answer a lookup.
func (v *Validator) ValidateLookupService(ctx context.Context, geminiURL string, selectedBundleCount int) error {
	if fe := v.validateLookupService(ctx, v.logger, geminiURL, selectedBundleCount); fe != nil {
		return fe
	}
	return nil
}

func (v *Validator) validateLookupService(ctx context.Context, logger *slog.Logger, geminiURL string, selectedBundleCount int) *FieldError {
	fe := v.probeLookup(ctx, logger, geminiURL, selectedBundleCount)
	v.metrics.recordCheck(settings.FieldGeminiURL, fe)
	return fe
}

func (v *Validator) probeLookup(ctx context.Context, logger *slog.Logger, geminiURL string, selectedBundleCount int) *FieldError {
	geminiURL = strings.TrimSpace(geminiURL)

	if geminiURL == "" {
		if selectedBundleCount > 0 {
			return &FieldError{
				Field: settings.FieldGeminiURL,
				Kind:  KindLookupURLRequired,
			}
		}
		return nil
	}

	finder, err := v.newFinder(geminiURL, logger)
	if err != nil {
		logger.Debug("Lookup URL rejected", "gemini_url", geminiURL, "error", err)
		return &FieldError{
			Field: settings.FieldGeminiURL,
			Kind:  KindInvalidURL,
			Value: geminiURL,
			Err:   err,
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, v.lookupTimeout)
	defer cancel()

	start := time.Now()
	_, err = finder.FindByURI(probeCtx, LookupProbeURI)
	v.metrics.observeProbe("lookup", start)

	switch {
	case err == nil:
		logger.Debug("Lookup probe succeeded", "gemini_url", geminiURL, "duration", time.Since(start))
		return nil
	case errors.Is(err, lookup.ErrUnreachable):
		logger.Warn("Lookup probe failed", "gemini_url", geminiURL, "error", err)
		return &FieldError{
			Field: settings.FieldGeminiURL,
			Kind:  KindServiceUnreachable,
			Value: geminiURL,
			Err:   err,
		}
	default:
		// The service answered; what it answered is not our concern.
		logger.Debug("Lookup probe answered with error", "gemini_url", geminiURL, "error", err)
		return nil
	}
}

// ValidateAll runs every check and collects all failures in field order:
// broker_url, jwt_expiry, gemini_url. A failing field never stops the
// others from being checked.
func (v *Validator) ValidateAll(ctx context.Context, in settings.Input) *Result {
	res := &Result{RunID: uuid.NewString()}
	logger := v.logger.With("run_id", res.RunID)

	res.add(v.validateBroker(ctx, logger, in.BrokerURL))

	iv, fe := v.validateExpiry(logger, in.JWTExpiry)
	res.add(fe)
	res.Expiry = iv

	res.add(v.validateLookupService(ctx, logger, in.GeminiURL, in.SelectedBundleCount()))

	logger.Info("Settings validated", "valid", res.Valid(), "failures", len(res.Errors))
	return res
}
