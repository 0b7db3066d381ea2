package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/reposettings/broker"
	"github.com/c360studio/reposettings/config"
	"github.com/c360studio/reposettings/lookup"
	"github.com/c360studio/reposettings/validator"
)

// newValidator builds a validator from configuration. A nil registerer
// disables metrics.
func newValidator(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*validator.Validator, error) {
	connector := broker.NewNATSConnector(
		broker.WithName(cfg.Broker.ClientName),
		broker.WithTimeout(cfg.Probes.BrokerTimeout),
		broker.WithLogger(logger),
	)

	token := cfg.Lookup.Token
	newFinder := func(baseURL string, logger *slog.Logger) (lookup.Finder, error) {
		return lookup.New(baseURL, logger, lookup.WithToken(token))
	}

	return validator.New(
		validator.WithConnector(connector),
		validator.WithFinderFactory(newFinder),
		validator.WithBrokerTimeout(cfg.Probes.BrokerTimeout),
		validator.WithLookupTimeout(cfg.Probes.LookupTimeout),
		validator.WithLogger(logger),
		validator.WithMetrics(reg),
	)
}
