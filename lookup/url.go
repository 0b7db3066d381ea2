package lookup

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidURL is returned for base URLs that cannot address a service.
var ErrInvalidURL = errors.New("invalid URL")

// ParseBaseURL parses and checks a service base URL.
func ParseBaseURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}

	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if net.ParseIP(host) == nil {
		if _, err := idna.Lookup.ToASCII(host); err != nil {
			return nil, fmt.Errorf("%w: host %q: %w", ErrInvalidURL, host, err)
		}
	}

	return parsed, nil
}
