package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", nil)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestFindByURI(t *testing.T) {
	var gotPath, gotURI, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotURI = r.URL.Query().Get("uri")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Location", "http://fcrepo/rest/abc")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/gemini", nil, WithToken("secret"))
	require.NoError(t, err)

	target, err := c.FindByURI(context.Background(), "http://example.org")
	require.NoError(t, err)
	assert.Equal(t, "http://fcrepo/rest/abc", target)
	assert.Equal(t, "/gemini/by_uri", gotPath)
	assert.Equal(t, "http://example.org", gotURI)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestFindByURI_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	target, err := c.FindByURI(context.Background(), "http://example.org")
	require.NoError(t, err)
	assert.Empty(t, target)
}

func TestFindByURI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.FindByURI(context.Background(), "http://example.org")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

func TestFindByURI_DoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://127.0.0.1:1/elsewhere", http.StatusSeeOther)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	target, err := c.FindByURI(context.Background(), "http://example.org")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1/elsewhere", target)
}

func TestFindByURI_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, nil, WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)

	_, err = c.FindByURI(context.Background(), "http://example.org")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestFindByURI_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.FindByURI(ctx, "http://example.org")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestNew_NoClientTimeout(t *testing.T) {
	c, err := New("http://gemini:8000", nil)
	require.NoError(t, err)
	// Requests are bounded by their context only.
	assert.Zero(t, c.httpClient.Timeout)
}

func TestFindByURI_DefaultTimeoutWithoutDeadline(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil, WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			deadline, hasDeadline = r.Context().Deadline()
			return http.DefaultTransport.RoundTrip(r)
		}),
	}))
	require.NoError(t, err)

	start := time.Now()
	_, err = c.FindByURI(context.Background(), "http://example.org")
	require.NoError(t, err)
	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(DefaultTimeout), deadline, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err = c.FindByURI(ctx, "http://example.org")
	require.NoError(t, err)
	want, _ := ctx.Deadline()
	assert.Equal(t, want, deadline)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
