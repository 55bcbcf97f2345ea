package azdo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// APIVersion is the REST API version requested from the release service.
	APIVersion = "7.1"

	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5
	DefaultBurst             = 5

	sessionHeader = "X-TFS-Session"
)

// Credentials authenticate against the release service.
// AccessToken (an Entra ID bearer token) takes precedence over PersonalAccessToken.
type Credentials struct {
	PersonalAccessToken string
	AccessToken         string
}

// TokenSource returns the oauth2 token source matching the configured credential.
// Personal access tokens are sent as HTTP basic auth with an empty user name.
func (c Credentials) TokenSource() (oauth2.TokenSource, error) {
	if token := strings.TrimSpace(c.AccessToken); token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
	}

	if pat := strings.TrimSpace(c.PersonalAccessToken); pat != "" {
		basic := base64.StdEncoding.EncodeToString([]byte(":" + pat))
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: basic, TokenType: "Basic"}), nil
	}

	return nil, ErrNoCredentials
}

// Client talks to the release management REST API of one organization or collection.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	sessionID  string
	userAgent  string
	logger     *slog.Logger
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient sets the HTTP client whose transport carries the authenticated requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithRateLimit limits outgoing requests to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = agent
	}
}

// New constructs a Client for the release management base URL, for example
// https://vsrm.dev.azure.com/contoso. Use ReleaseManagementURL to derive it from a collection URL.
func New(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid release management url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid release management url %q: scheme must be http or https", baseURL)
	}

	source, err := creds.TokenSource()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		sessionID:  uuid.NewString(),
		userAgent:  "mr-release",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authenticated := oauth2.NewClient(ctx, source)
	authenticated.Timeout = base.Timeout
	c.httpClient = authenticated

	return c, nil
}

// SessionID returns the correlation id sent with every request of this client.
func (c *Client) SessionID() string {
	return c.sessionID
}

// ReleaseManagementURL derives the release management endpoint from a collection URL.
// Azure DevOps Services hosts release APIs on a separate vsrm host; Azure DevOps Server
// serves them from the collection itself.
func ReleaseManagementURL(collection string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(collection))
	if err != nil {
		return "", fmt.Errorf("invalid collection url: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid collection url %q: missing host", collection)
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "dev.azure.com":
		parsed.Host = "vsrm.dev.azure.com"
	case strings.HasSuffix(host, ".visualstudio.com") && !strings.HasSuffix(host, ".vsrm.visualstudio.com"):
		org := strings.TrimSuffix(host, ".visualstudio.com")
		parsed.Host = org + ".vsrm.visualstudio.com"
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/"), nil
}

// get issues a GET request for path relative to the base URL and decodes the JSON body into v.
// The response headers are returned for callers that page with header tokens.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", APIVersion)
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(sessionHeader, c.sessionID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api_request",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	// Azure DevOps answers rejected credentials with a 203 sign-in page.
	if resp.StatusCode == http.StatusNonAuthoritativeInfo {
		return nil, &APIError{Status: resp.StatusCode, Message: "authentication failed, check the access token"}
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp.Header, nil
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message == "" {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Message)
}

func projectPath(project string) string {
	return "/" + url.PathEscape(project)
}
