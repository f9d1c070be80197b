package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/headless/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config configures the HTTP client
type Config struct {
	Timeout            time.Duration
	RateLimit          float64 // requests per second, 0 for unlimited
	Burst              int
	UserAgent          string
	InsecureSkipVerify bool
	// BreakerFailures opens a host's breaker after that many consecutive
	// transport failures; 0 disables breaking
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns the client defaults
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		UserAgent:       "headless/1.0",
		BreakerFailures: 10,
		BreakerTimeout:  30 * time.Second,
	}
}

// Client sends requests with resty over a pooled transport, rate limited
// and guarded by a circuit breaker per host
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	logger   *zap.Logger
}

// New creates a client. Redirects, cookies and retries are disabled.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("transport")

	// pooled transport without the retrying client around it
	pooled := retryablehttp.NewClient()
	pooled.Logger = nil

	restyClient := resty.New().
		SetTransport(pooled.HTTPClient.Transport).
		SetCookieJar(nil).
		SetRetryCount(0).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})).
		SetLogger(logger.Sugar()).
		SetHeader("Accept-Encoding", AcceptEncoding)

	if cfg.Timeout > 0 {
		restyClient.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.InsecureSkipVerify {
		restyClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	var breakers *resilience.Group
	if cfg.BreakerFailures > 0 {
		breakers = resilience.NewGroup(resilience.Settings{
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: resilience.ConsecutiveFailures(cfg.BreakerFailures),
			OnStateChange: func(host string, from, to resilience.State) {
				logger.Info("Circuit breaker state changed",
					zap.String("host", host),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		})
	}

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: breakers,
		logger:   logger,
	}
}

// RoundTrip sends req and reads the complete response. Only network level
// failures are errors; any HTTP status is a response.
func (c *Client) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	var resp *resty.Response
	send := func() error {
		r := c.resty.R().SetContext(ctx)
		for name, values := range req.Header {
			for _, v := range values {
				r.Header.Add(name, v)
			}
		}
		if req.Body != nil {
			r.SetBody(req.Body)
		}
		var err error
		resp, err = r.Execute(req.Method, req.URL.String())
		return err
	}

	var err error
	if c.breakers == nil {
		err = send()
	} else {
		err = c.breakers.Get(req.URL.Host).Execute(send)
	}
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("host %s unavailable: %w", req.URL.Host, err)
		}
		return nil, err
	}

	header := resp.Header().Clone()
	body, decoded, err := decodeBody(header.Get("Content-Encoding"), resp.Body())
	if err != nil {
		return nil, err
	}
	if decoded {
		header.Del("Content-Encoding")
		header.Del("Content-Length")
	}

	out := &Response{
		Status:     resp.StatusCode(),
		StatusText: http.StatusText(resp.StatusCode()),
		Header:     header,
		Body:       body,
		URL:        req.URL,
		Elapsed:    resp.Time(),
	}
	if resp.RawResponse != nil {
		out.Proto = resp.RawResponse.Proto
	}

	c.logger.Debug("Round trip complete",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", out.Status),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

// BreakerStates returns the breaker state of every host contacted so far
func (c *Client) BreakerStates() map[string]resilience.State {
	if c.breakers == nil {
		return nil
	}
	return c.breakers.States()
}
