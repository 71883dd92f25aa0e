// Package remote executes derived tool operations against a third-party
// GraphQL endpoint over HTTP, handling bearer credentials, single-shot auth
// retry, and response repair for list-typed output schemas.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobmcallan/gqlbridge/internal/common"
	"github.com/bobmcallan/gqlbridge/internal/schema"
)

// maxResponseSize caps response bodies to prevent OOM from unexpectedly
// large responses.
const maxResponseSize = 50 << 20 // 50MB

// RefreshFunc mints a fresh bearer token. Called at most once per request on
// an auth failure. Concurrent duplicate refreshes are tolerated; every call
// must yield a usable token.
type RefreshFunc func(ctx context.Context) (string, error)

// Options configures a Client.
type Options struct {
	URL                string
	Headers            map[string]string
	Timeout            time.Duration
	BearerToken        string
	RefreshToken       RefreshFunc
	InsecureSkipVerify bool
	Logger             *common.Logger
}

// Client is a GraphQL HTTP client bound to one endpoint. It owns a single
// persistent connection pool across calls; Close releases it. Safe for
// concurrent use.
type Client struct {
	url     string
	headers map[string]string
	logger  *common.Logger

	mu      sync.Mutex // guards bearer
	bearer  string
	refresh RefreshFunc

	httpClient *http.Client

	cacheState int32
	listFields atomic.Pointer[map[string]map[string]bool]
}

// NewClient creates a client for the given endpoint.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport
	if opts.InsecureSkipVerify {
		logger.Warn().Str("url", opts.URL).Msg("TLS certificate verification disabled - only use in development")
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Client{
		url:     opts.URL,
		headers: headers,
		logger:  logger,
		bearer:  opts.BearerToken,
		refresh: opts.RefreshToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// URL returns the configured endpoint URL.
func (c *Client) URL() string { return c.url }

// Close releases the client's persistent connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// graphQLRequest is the standard POST body.
type graphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (r *graphQLResponse) errorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return msgs
}

// Execute runs a GraphQL operation: variables are cleaned of Unset
// sentinels, unused variable declarations are trimmed from the operation
// text, the request is sent with credentials attached, one refresh-and-retry
// happens on an auth failure, and nulls in the response are repaired to
// empty lists where the schema (or a heuristic) says the field is a list.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, operationName string) (map[string]any, error) {
	return c.execute(ctx, query, variables, operationName, true)
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, operationName string, retryOnAuthError bool) (map[string]any, error) {
	cleaned := CleanVariables(variables)
	trimmed := TrimUnusedVariables(query, cleaned)

	status, body, err := c.post(ctx, graphQLRequest{
		Query:         trimmed,
		Variables:     cleaned,
		OperationName: operationName,
	})
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if retryOnAuthError && c.refresh != nil {
			if err := c.refreshToken(ctx); err == nil {
				return c.execute(ctx, query, variables, operationName, false)
			}
		}
		return nil, &AuthError{StatusCode: status}
	}
	if status != http.StatusOK {
		return nil, &TransportError{StatusCode: status, Body: string(body)}
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{StatusCode: status, Err: fmt.Errorf("invalid response body: %w", err)}
	}

	if len(resp.Errors) > 0 {
		messages := resp.errorMessages()
		if isAuthFlavored(messages) && retryOnAuthError && c.refresh != nil {
			if err := c.refreshToken(ctx); err == nil {
				return c.execute(ctx, query, variables, operationName, false)
			}
			return nil, &AuthError{Messages: messages}
		}
		return nil, &GraphQLError{Messages: messages}
	}

	c.ensurePopulated(ctx)

	var data map[string]any
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, &TransportError{StatusCode: status, Err: fmt.Errorf("invalid data payload: %w", err)}
		}
	}
	repaired, _ := c.repairNullLists(data).(map[string]any)
	return repaired, nil
}

// rawExecute sends a query without retry or repair. Used for introspection.
func (c *Client) rawExecute(ctx context.Context, query string) (json.RawMessage, error) {
	status, body, err := c.post(ctx, graphQLRequest{Query: query})
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if status != http.StatusOK {
		return nil, &TransportError{StatusCode: status, Body: string(body)}
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{StatusCode: status, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	if len(resp.Errors) > 0 {
		return nil, &GraphQLError{Messages: resp.errorMessages()}
	}
	return resp.Data, nil
}

// post sends one GraphQL POST and returns status and body. The body reader
// is closed on every exit path.
func (c *Client) post(ctx context.Context, payload graphQLRequest) (int, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Str("url", c.url).Int64("duration_ms", time.Since(start).Milliseconds()).Str("error", err.Error()).Msg("graphql request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", time.Since(start).Milliseconds()).Msg("graphql response")
	return resp.StatusCode, body, nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearer
}

// SetBearerToken replaces the bearer token used on subsequent requests.
func (c *Client) SetBearerToken(token string) {
	c.mu.Lock()
	c.bearer = token
	c.mu.Unlock()
}

// refreshToken replaces the bearer token via the refresh callback. Not
// guarded against concurrent duplicate refreshes; refresh must be idempotent
// from the caller's perspective.
func (c *Client) refreshToken(ctx context.Context) error {
	token, err := c.refresh(ctx)
	if err != nil {
		c.logger.Warn().Str("error", err.Error()).Msg("bearer token refresh failed")
		return err
	}
	c.mu.Lock()
	c.bearer = token
	c.mu.Unlock()
	c.logger.Debug().Msg("bearer token refreshed")
	return nil
}

// FetchSchema introspects the remote endpoint and builds the portable
// schema model used for tool derivation.
func (c *Client) FetchSchema(ctx context.Context) (*schema.Schema, error) {
	data, err := c.rawExecute(ctx, schema.IntrospectionQuery)
	if err != nil {
		return nil, &IntrospectionError{Err: err}
	}
	s, err := schema.ParseIntrospection(data)
	if err != nil {
		return nil, &IntrospectionError{Err: err}
	}
	return s, nil
}
