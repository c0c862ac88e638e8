package cettpro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

// maxResponseSize is the maximum allowed response size from the CETTPRO API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// defaultRetryAfter is used when a 429 response carries no Retry-After header
const defaultRetryAfter = 60 * time.Second

const (
	authPath        = "/auth/token"
	coursesPath     = "/courses"
	classesPath     = "/classes"
	studentsPath    = "/students"
	enrollmentsPath = "/enrollments"
)

// Config holds connection settings for the CETTPRO API
type Config struct {
	BaseURL        string
	Username       string
	Password       string
	TimeoutSeconds int
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("cettpro: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("cettpro: invalid base URL: %w", err)
	}
	if c.Username == "" || c.Password == "" {
		return errors.New("cettpro: credentials are required")
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Client is the CETTPRO API adapter. It owns the shared token cache, so one
// instance is meant to be injected everywhere partner calls are made.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
	tokens     *tokenCache
}

// Compile-time check that Client satisfies the gateway contract
var _ syncdomain.PartnerGateway = (*Client)(nil)

// NewClient creates a CETTPRO client with the given configuration
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
		tokens: &tokenCache{},
	}, nil
}

// credentialsRequest is the credential exchange payload
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Authenticate returns a valid bearer token, exchanging credentials only
// when the cached token is missing or within the expiry buffer. The cache
// mutex is held across the exchange: concurrent callers wait for the one
// in-flight refresh instead of issuing their own.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	if c.tokens.valid(time.Now()) {
		return c.tokens.token, nil
	}

	var resp tokenResponse
	creds := credentialsRequest{Username: c.config.Username, Password: c.config.Password}
	if err := c.send(ctx, http.MethodPost, authPath, nil, creds, &resp, false); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", syncdomain.ErrDecode)
	}

	lifetime, err := resp.ExpiresIn.Int64()
	if err != nil || lifetime <= 0 {
		lifetime = 3600
	}
	c.tokens.store(resp.AccessToken, time.Duration(lifetime)*time.Second)

	c.logger.Debug("partner token refreshed",
		zap.String("token_type", resp.TokenType),
		zap.Int64("expires_in", lifetime),
	)
	return c.tokens.token, nil
}

// send performs a partner API call. When withAuth is set and the partner
// rejects the bearer token, the cached token has already been dropped, so
// one more attempt exchanges credentials and replays the call.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload, out interface{}, withAuth bool) error {
	err := c.do(ctx, method, path, query, payload, out, withAuth)
	if withAuth && errors.Is(err, syncdomain.ErrAuthentication) {
		c.logger.Debug("partner rejected token, replaying with a fresh one",
			zap.String("path", path),
		)
		err = c.do(ctx, method, path, query, payload, out, withAuth)
	}
	return err
}

// do performs one partner API call and translates the response status into
// the sync error taxonomy. A bearer token is obtained transparently when
// withAuth is set and invalidated if the partner rejects it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out interface{}, withAuth bool) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encoding request: %v", syncdomain.ErrInvalidRequest, err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", syncdomain.ErrInvalidRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		token, err := c.Authenticate(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", syncdomain.ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", syncdomain.ErrDecode, err)
		}
		return nil

	case resp.StatusCode == http.StatusNoContent:
		return nil

	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", syncdomain.ErrInvalidRequest, truncate(raw, 512))

	case resp.StatusCode == http.StatusUnauthorized:
		if withAuth {
			c.tokens.invalidate()
		}
		return fmt.Errorf("%w: status 401", syncdomain.ErrAuthentication)

	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", syncdomain.ErrAccessDenied, path)

	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", syncdomain.ErrNotFound, path)

	case resp.StatusCode == http.StatusTooManyRequests:
		return &syncdomain.RateLimitError{RetryAfter: retryAfter(resp.Header)}

	default:
		return fmt.Errorf("%w: status %d", syncdomain.ErrUpstream, resp.StatusCode)
	}
}

// retryAfter parses the Retry-After header, falling back to a conservative
// default when absent or unparseable
func retryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// fetchList fetches one collection endpoint and maps wire DTOs to domain
// records. A 404 on a collection endpoint means the partner has nothing for
// us, not an error.
func fetchList[T any, D interface{ toDomain() T }](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var dtos []D
	if err := c.send(ctx, http.MethodGet, path, query, nil, &dtos, true); err != nil {
		if errors.Is(err, syncdomain.ErrNotFound) {
			return []T{}, nil
		}
		return nil, err
	}
	out := make([]T, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// rangeQuery builds the date-bounded fetch parameters
func rangeQuery(from, to time.Time) url.Values {
	return url.Values{
		"updatedFrom": []string{from.Format(time.RFC3339)},
		"updatedTo":   []string{to.Format(time.RFC3339)},
	}
}

// ---------------------------------------------------------------------------
// PartnerGateway implementation
// ---------------------------------------------------------------------------

// FetchCourses returns the authoritative course set
func (c *Client) FetchCourses(ctx context.Context) ([]syncdomain.RemoteCourse, error) {
	return fetchList[syncdomain.RemoteCourse, courseDTO](ctx, c, coursesPath, nil)
}

// FetchCoursesByDateRange returns courses changed within the window
func (c *Client) FetchCoursesByDateRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteCourse, error) {
	return fetchList[syncdomain.RemoteCourse, courseDTO](ctx, c, coursesPath, rangeQuery(from, to))
}

// FetchClasses returns the authoritative class set
func (c *Client) FetchClasses(ctx context.Context) ([]syncdomain.RemoteClass, error) {
	return fetchList[syncdomain.RemoteClass, classDTO](ctx, c, classesPath, nil)
}

// FetchClassesByDateRange returns classes changed within the window
func (c *Client) FetchClassesByDateRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteClass, error) {
	return fetchList[syncdomain.RemoteClass, classDTO](ctx, c, classesPath, rangeQuery(from, to))
}

// FetchStudents returns the authoritative student set
func (c *Client) FetchStudents(ctx context.Context) ([]syncdomain.RemoteStudent, error) {
	return fetchList[syncdomain.RemoteStudent, studentDTO](ctx, c, studentsPath, nil)
}

// FetchStudentsByDateRange returns students changed within the window
func (c *Client) FetchStudentsByDateRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteStudent, error) {
	return fetchList[syncdomain.RemoteStudent, studentDTO](ctx, c, studentsPath, rangeQuery(from, to))
}

// FetchEnrollments returns the authoritative enrollment set
func (c *Client) FetchEnrollments(ctx context.Context) ([]syncdomain.RemoteEnrollment, error) {
	return fetchList[syncdomain.RemoteEnrollment, enrollmentDTO](ctx, c, enrollmentsPath, nil)
}

// FetchEnrollmentsByDateRange returns enrollments changed within the window
func (c *Client) FetchEnrollmentsByDateRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteEnrollment, error) {
	return fetchList[syncdomain.RemoteEnrollment, enrollmentDTO](ctx, c, enrollmentsPath, rangeQuery(from, to))
}
