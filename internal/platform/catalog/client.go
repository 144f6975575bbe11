package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"crateapi/internal/logging"
	"crateapi/internal/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const breakerName = "catalog-api"

// BreakerSettings tunes the circuit breaker shared by all calls of a Client.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
}

type options struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tokens     oauth2.TokenSource
	rps        float64
	burst      int
	breaker    BreakerSettings
	market     string
}

// Option configures a Client.
type Option func(*options)

func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = u } }

// WithTimeout bounds every individual upstream call.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.httpClient = hc } }

// WithTokenSource sets the app-level credentials. Without one requests are
// sent unauthenticated.
func WithTokenSource(ts oauth2.TokenSource) Option { return func(o *options) { o.tokens = ts } }

func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rps = rps
		o.burst = burst
	}
}

func WithBreaker(s BreakerSettings) Option { return func(o *options) { o.breaker = s } }

// WithDefaultMarket is used when a request carries no market.
func WithDefaultMarket(m string) Option { return func(o *options) { o.market = m } }

// Client talks to the catalog Web API. It is safe for concurrent use; the
// limiter and breaker are shared with clients derived through ForUser.
type Client struct {
	http    *resty.Client
	tokens  oauth2.TokenSource
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	market  string
	user    bool
}

// NewAppTokenSource returns a client-credentials token source, or nil when
// no client id is configured.
func NewAppTokenSource(ctx context.Context, clientID, clientSecret, tokenURL string) oauth2.TokenSource {
	if clientID == "" {
		return nil
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return cfg.TokenSource(ctx)
}

func NewClient(opts ...Option) *Client {
	o := options{
		baseURL: "https://api.spotify.com",
		timeout: 20 * time.Second,
		rps:     8,
		burst:   4,
		breaker: BreakerSettings{MinRequests: 10, FailureRatio: 0.6, OpenTimeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(o.baseURL).
		SetTimeout(o.timeout).
		SetHeader("Accept", "application/json")

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		http:    rc,
		tokens:  o.tokens,
		limiter: rate.NewLimiter(rate.Limit(o.rps), o.burst),
		breaker: newBreaker(o.breaker),
		market:  o.market,
	}
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker[*resty.Response] {
	return gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// Missing objects, rejected credentials and abandoned requests say
		// nothing about upstream health. A 401 is scoped to one caller's token
		// and must not open the breaker shared with ForUser clients.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrUnauthorized) ||
				errors.Is(err, context.Canceled)
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// ForUser returns a client that authenticates as the given user. The
// returned client shares the rate limiter and breaker with c.
func (c *Client) ForUser(accessToken string) *Client {
	cp := *c
	cp.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	cp.user = true
	return &cp
}

// IsUser reports whether the client carries user credentials.
func (c *Client) IsUser() bool { return c.user }

func (c *Client) marketOr(m string) string {
	if m != "" {
		return m
	}
	return c.market
}

type call struct {
	endpoint   string
	path       string
	pathParams map[string]string
	query      map[string]string
}

// get performs one GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, in call, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := c.http.R().SetContext(ctx)
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("%w: %s: fetch access token: %v", ErrUpstream, in.endpoint, err)
		}
		req.SetAuthToken(tok.AccessToken)
	}
	if len(in.pathParams) > 0 {
		req.SetPathParams(in.pathParams)
	}
	for k, v := range in.query {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		resp, err := req.Get(in.path)
		if err != nil {
			return resp, err
		}
		if resp.IsError() {
			return resp, newAPIError(in.endpoint, resp)
		}
		return resp, nil
	})
	metrics.CatalogRequestDuration.WithLabelValues(in.endpoint).Observe(time.Since(start).Seconds())
	metrics.CatalogRequests.WithLabelValues(in.endpoint, statusLabel(resp, err)).Inc()

	if err != nil {
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr):
			return apiErr
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return fmt.Errorf("%w: %s: %v", ErrUpstream, in.endpoint, err)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return fmt.Errorf("%w: %s: %v", ErrUpstream, in.endpoint, err)
		}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", ErrUpstream, in.endpoint, err)
	}
	return nil
}

func newAPIError(endpoint string, resp *resty.Response) *APIError {
	apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(resp.Body(), &body) == nil {
		apiErr.Message = body.Error.Message
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = parseRetryAfter(resp.Header().Get("Retry-After"))
	}
	return apiErr
}

func statusLabel(resp *resty.Response, err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	case resp == nil || resp.RawResponse == nil:
		return "error"
	default:
		return strconv.Itoa(resp.StatusCode()/100) + "xx"
	}
}
