package checker

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits, shared by every worker of a run
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// NoResponse is the status code recorded when a probe never received an
// HTTP response. It cannot collide with a real HTTP status.
const NoResponse = -1

// ProbeResult is the result of a single probe attempt.
//
// A probe either responded (Err is nil and StatusCode holds the HTTP status)
// or failed (Err describes the failure and StatusCode is [NoResponse]).
type ProbeResult struct {
	// StatusCode is the HTTP status code, or NoResponse on failure.
	StatusCode int

	// Elapsed is the wall time of this attempt, measured on the monotonic clock.
	Elapsed time.Duration

	// Err is set when the probe could not complete.
	Err error
}

// Responded reports whether the probe received an HTTP response.
func (r ProbeResult) Responded() bool {
	return r.Err == nil
}

// Prober performs exactly one network attempt against a target.
type Prober interface {
	Probe(ctx context.Context, target string, timeout time.Duration) ProbeResult
}

// Client is the HTTP [Prober] used in production.
//
// The timeout passed to [Client.Probe] bounds each phase of the attempt on
// its own: connecting (dial and TLS handshake), writing the request,
// waiting for the response headers, and each read of the response body. A slow phase fails the probe even if the others were
// fast. An *http.Client is built lazily for every distinct timeout value and
// reused afterwards so connections are pooled across workers.
type Client struct {
	mu      sync.Mutex
	clients map[time.Duration]*http.Client
}

// NewClient creates a new probing [Client].
func NewClient() *Client {
	return &Client{
		clients: make(map[time.Duration]*http.Client),
	}
}

// Probe performs a single GET request against target.
//
// Probe always returns a ProbeResult; failures are captured in the Err field
// rather than returned separately. The response body is drained (up to 1MB)
// and closed so the connection can go back to the pool.
func (c *Client) Probe(ctx context.Context, target string, timeout time.Duration) ProbeResult {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return ProbeResult{
			StatusCode: NoResponse,
			Elapsed:    time.Since(start),
			Err:        fmt.Errorf("failed to create request: %w", err),
		}
	}

	resp, err := c.httpClient(timeout).Do(req)
	if err != nil {
		return ProbeResult{
			StatusCode: NoResponse,
			Elapsed:    time.Since(start),
			Err:        fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// the body may stall; cancel the attempt after timeout without progress
	idle := time.AfterFunc(timeout, cancel)
	defer idle.Stop()
	body := &idleTimeoutReader{r: resp.Body, timer: idle, timeout: timeout}

	// a response arrived; a broken body does not change the status we report
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBodySize))

	return ProbeResult{
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
	}
}

// Close closes all idle connections held by the client.
//
// Safe to call multiple times and on a nil receiver. The client stays usable.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, hc := range c.clients {
		hc.CloseIdleConnections()
	}
}

// httpClient returns the client configured for timeout, creating it on first use.
func (c *Client) httpClient(timeout time.Duration) *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hc, ok := c.clients[timeout]; ok {
		return hc
	}

	dialer := &net.Dialer{Timeout: timeout}
	hc := &http.Client{
		// no global timeout - each phase is bounded separately below and in Probe
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				conn, err := dialer.DialContext(ctx, network, addr)
				if err != nil {
					return nil, err
				}
				return &deadlineConn{Conn: conn, timeout: timeout}, nil
			},
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          defaultMaxIdleConns,
			MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
		},
	}
	c.clients[timeout] = hc
	return hc
}

// deadlineConn arms a fresh write deadline before every write, so a request
// that cannot be sent fails after timeout. Reads carry no deadline: the
// transport keeps a read pending on idle pooled connections.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// idleTimeoutReader pushes timer back by timeout before every read.
type idleTimeoutReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleTimeoutReader) Read(b []byte) (int, error) {
	r.timer.Reset(r.timeout)
	return r.r.Read(b)
}
