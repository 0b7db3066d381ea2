// Package lookup is a client for the URI-resolution ("Gemini") service that
// maps repository content URIs to their counterparts in the other system.
//
// # Construction
//
// [New] validates the base URL before anything touches the network:
//
//   - scheme must be http or https
//   - a host is required
//   - the host must be a valid IDNA name or an IP literal
//
// Malformed URLs fail with [ErrInvalidURL].
//
// # Lookups
//
// [Client.FindByURI] issues GET {base}/by_uri?uri=... and returns the
// counterpart URI from the Location header. A 404 is not an error: it means
// the service has no mapping and yields an empty string. Other non-2xx
// responses come back as *[StatusError]; the service answered, it just did
// not like the request. Only transport failures wrap [ErrUnreachable].
//
// # Usage
//
//	c, err := lookup.New("http://localhost:8000/gemini", logger)
//	if err != nil {
//	    return err // errors.Is(err, lookup.ErrInvalidURL)
//	}
//	target, err := c.FindByURI(ctx, "http://example.org")
package lookup
