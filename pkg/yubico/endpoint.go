package yubico

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultURL is the public YubiCloud validation endpoint.
const DefaultURL = "https://api.yubico.com/wsapi/2.0/verify"

var ErrInvalidEndpoint = errors.New("yubico: invalid endpoint")

// Endpoint is a single validation server URL.
type Endpoint struct {
	URL *url.URL
}

// DefaultEndpoints returns the public YubiCloud endpoint.
func DefaultEndpoints() []Endpoint {
	ep, _ := ParseEndpoint(DefaultURL)
	return []Endpoint{ep}
}

// ParseEndpoint parses a configured endpoint. Only an explicit http scheme
// disables TLS; a missing or unknown scheme is treated as https.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("%w: empty url", ErrInvalidEndpoint)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("%w: missing host in %q", ErrInvalidEndpoint, raw)
	}
	if !strings.EqualFold(u.Scheme, "http") {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}

	// Credentials, query and fragment are never part of a validation URL.
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""

	return Endpoint{URL: u}, nil
}

// ParseEndpoints parses a comma separated endpoint list. An empty list yields
// DefaultEndpoints.
func ParseEndpoints(list string) ([]Endpoint, error) {
	var out []Endpoint
	for part := range strings.SplitSeq(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ep, err := ParseEndpoint(part)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	if len(out) == 0 {
		return DefaultEndpoints(), nil
	}
	return out, nil
}

// UseHTTPS reports whether requests to this endpoint use TLS.
func (e Endpoint) UseHTTPS() bool {
	return e.URL != nil && e.URL.Scheme == "https"
}

func (e Endpoint) String() string {
	if e.URL == nil {
		return ""
	}
	return e.URL.String()
}

// requestURL returns a copy of the endpoint URL carrying the given query.
func (e Endpoint) requestURL(query url.Values) string {
	u := *e.URL
	u.RawQuery = query.Encode()
	return u.String()
}
