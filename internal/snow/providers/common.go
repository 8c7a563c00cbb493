package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/season-snow-board/internal/snow"
)

// HTTPClientConfig bundles the HTTP client and breaker settings for a provider.
type HTTPClientConfig struct {
	Client *http.Client

	// BreakerThreshold is the number of consecutive failures that opens the breaker.
	BreakerThreshold uint32
	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
}

const maxErrorBody = 4 << 10

var errNoHTTPClient = errors.New("http client not configured")

// breakerSet keeps one circuit breaker per key, so failures at one resort
// never short-circuit another.
type breakerSet struct {
	name string
	cfg  HTTPClientConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet(name string, cfg HTTPClientConfig) *breakerSet {
	return &breakerSet{
		name:     name,
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (b *breakerSet) get(key string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	cb, ok := b.breakers[key]
	if !ok {
		cb = newCircuitBreaker(b.name+":"+key, b.cfg)
		b.breakers[key] = cb
	}
	return cb
}

func newCircuitBreaker(name string, cfg HTTPClientConfig) *gobreaker.CircuitBreaker {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 3
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 2 * time.Minute
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
	})
}

// statusError carries the HTTP status of a rejected request.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status=%d", e.code)
}

// isClientError reports a 4xx answer other than 429. The upstream is healthy;
// the request itself was refused, so it must not open the breaker.
func isClientError(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests
}

// doRequest executes the request exactly once behind the circuit breaker.
// Non-2xx responses are closed and reported as snow.ErrUpstreamStatus.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %w", snow.ErrTransport, execErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, fmt.Errorf("%w: %w %s", snow.ErrUpstreamStatus, &statusError{code: resp.StatusCode}, errorReason(body))
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", snow.ErrCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// errorReason pulls the "reason" field out of a JSON error body, falling back
// to the raw body.
func errorReason(body []byte) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Reason != "" {
		return "reason=" + payload.Reason
	}
	return "body=" + strings.TrimSpace(string(body))
}
