package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360studio/reposettings/broker"
	"github.com/c360studio/reposettings/lookup"
)

var errRefused = errors.New("connection refused")

// fakeConnector accepts a fixed set of broker URLs.
type fakeConnector struct {
	mu        sync.Mutex
	reachable map[string]bool
	subErr    error
	calls     []string
}

func newFakeConnector(reachable ...string) *fakeConnector {
	c := &fakeConnector{reachable: make(map[string]bool)}
	for _, u := range reachable {
		c.reachable[u] = true
	}
	return c
}

func (c *fakeConnector) Connect(_ context.Context, url string) (broker.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, url)
	if !c.reachable[url] {
		return nil, fmt.Errorf("dial %s: %w", url, errRefused)
	}
	return &fakeSession{subErr: c.subErr}, nil
}

type fakeSession struct {
	subErr error
}

func (s *fakeSession) Subscribe(context.Context, string) error { return s.subErr }
func (s *fakeSession) Unsubscribe() error                      { return nil }
func (s *fakeSession) Close()                                  {}

// fakeFinder answers lookups with a fixed error.
type fakeFinder struct {
	err   error
	calls []string
}

func (f *fakeFinder) FindByURI(_ context.Context, uri string) (string, error) {
	f.calls = append(f.calls, uri)
	return "", f.err
}

// finderFactory validates the URL like the real client and hands out f.
func finderFactory(f *fakeFinder) FinderFactory {
	return func(baseURL string, _ *slog.Logger) (lookup.Finder, error) {
		if _, err := lookup.ParseBaseURL(baseURL); err != nil {
			return nil, err
		}
		return f, nil
	}
}
