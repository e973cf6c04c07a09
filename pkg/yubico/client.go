package yubico

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/keygate/pkg/idx"
)

const (
	// DefaultTimeout bounds a single HTTP exchange when the caller's context
	// carries no earlier deadline.
	DefaultTimeout = 15 * time.Second

	maxResponseSize = 4096
	userAgent       = "keygate-yubico/1.0"
)

// Client verifies OTPs against one or more validation endpoints.
// It is safe for concurrent use.
type Client struct {
	Credentials Credentials
	Endpoints   []Endpoint
	HTTPClient  *http.Client

	// Parallel queries every endpoint at once instead of in order.
	Parallel bool

	key   []byte
	nonce func() string
}

// NewClient creates a client for the given credentials. With no endpoints the
// public YubiCloud endpoint is used.
func NewClient(creds Credentials, endpoints ...Endpoint) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints()
	}

	return &Client{
		Credentials: creds,
		Endpoints:   endpoints,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		key:   creds.Key(),
		nonce: idx.Nonce,
	}, nil
}

// Verify validates otp. It returns a Response only when an endpoint answers
// status=OK with a valid signature; every other outcome is an *Error.
func (c *Client) Verify(ctx context.Context, otp string) (*Response, error) {
	if len(c.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	if c.Parallel && len(c.Endpoints) > 1 {
		return c.verifyParallel(ctx, otp)
	}
	return c.verifySequential(ctx, otp)
}

func (c *Client) verifySequential(ctx context.Context, otp string) (*Response, error) {
	var lastErr error
	for _, ep := range c.Endpoints {
		resp, err := c.verifyEndpoint(ctx, ep, otp)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if IsTerminal(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) verifyParallel(ctx context.Context, otp string) (*Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		resp *Response
		err  error
	}

	// Buffered so the losers can finish after we return.
	results := make(chan result, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		go func() {
			resp, err := c.verifyEndpoint(ctx, ep, otp)
			results <- result{resp: resp, err: err}
		}()
	}

	var lastErr error
	for range c.Endpoints {
		r := <-results
		if r.err == nil {
			return r.resp, nil
		}
		if IsTerminal(r.err) {
			return nil, r.err
		}
		if lastErr == nil || !errors.Is(r.err, context.Canceled) {
			lastErr = r.err
		}
	}
	return nil, lastErr
}

// verifyEndpoint performs one signed request against ep.
func (c *Client) verifyEndpoint(ctx context.Context, ep Endpoint, otp string) (*Response, error) {
	if ep.URL == nil {
		return nil, newError(KindTransport, ep, "endpoint has no url")
	}

	nonce := c.newNonce()
	params := map[string]string{
		"id":        c.Credentials.ClientID,
		"otp":       otp,
		"nonce":     nonce,
		"timestamp": "1",
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("h", Sign(c.signingKey(), params))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.requestURL(query), nil)
	if err != nil {
		return nil, newError(KindTransport, ep, "failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	httpResp, err := c.httpClient().Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, newError(KindTimeout, ep, "request timed out: %w", stripRequestURL(err))
		}
		return nil, newError(KindTransport, ep, "failed to send request: %w", stripRequestURL(err))
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, newError(KindTransport, ep, "unexpected http status %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, newError(KindTimeout, ep, "reading response timed out: %w", stripRequestURL(err))
		}
		return nil, newError(KindTransport, ep, "failed to read response body: %w", stripRequestURL(err))
	}

	fields, err := parseFields(body)
	if err != nil {
		return nil, newError(KindMalformed, ep, "failed to parse response: %w", err)
	}

	status := Status(fields["status"])
	if status == "" {
		return nil, newError(KindMalformed, ep, "response has no status")
	}

	if !VerifySignature(c.signingKey(), fields) {
		verr := newError(KindSignature, ep, "response signature does not match")
		verr.Status = status
		return nil, verr
	}

	if status != StatusOK {
		return nil, &Error{Kind: KindStatus, Status: status, Endpoint: ep.String()}
	}

	if fields["otp"] != otp || fields["nonce"] != nonce {
		return nil, newError(KindMalformed, ep, "response does not echo the request otp and nonce")
	}

	return &Response{
		Status:    status,
		OTP:       fields["otp"],
		Nonce:     fields["nonce"],
		Timestamp: fields["t"],
		SyncLevel: fields["sl"],
		Endpoint:  ep.String(),
	}, nil
}

func (c *Client) signingKey() []byte {
	if c.key == nil {
		return c.Credentials.Key()
	}
	return c.key
}

func (c *Client) newNonce() string {
	if c.nonce == nil {
		return idx.Nonce()
	}
	return c.nonce()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// stripRequestURL drops the *url.Error wrapper net/http puts around transport
// failures. Its message carries the full request URL, and with it the OTP.
func stripRequestURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
