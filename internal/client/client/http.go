package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/logging"
	"github.com/go-resty/resty/v2"
)

// Backend routes.
const (
	pathLogin         = "/api/v1/auth/login"
	pathRegister      = "/api/v1/auth/register"
	pathMe            = "/api/v1/users/me"
	pathItems         = "/api/v1/food-items/"
	pathItem          = "/api/v1/food-items/{id}"
	pathExpiring      = "/api/v1/food-items/expiring-soon/"
	pathBarcode       = "/api/v1/barcode/{code}"
	pathImageAnalysis = "/api/v1/image-analysis/"
)

const maxDetailLen = 300

// HTTPClient is the authorized request path to the backend.
type HTTPClient struct {
	rc     *resty.Client
	tokens TokenSource
	log    logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for baseURL (scheme://host[:port]).
// tokens is consulted on every request.
func NewHTTPClient(baseURL string, tokens TokenSource, timeout time.Duration, log logging.Logger) *HTTPClient {
	c := &HTTPClient{tokens: tokens, log: log}

	c.rc = resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetLogger(restyLogger{log: log}).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(c.attachCredential).
		OnAfterResponse(c.logResponse)

	return c
}

// attachCredential stamps the request with the credential current at
// dispatch time. Any Authorization header set elsewhere is dropped.
func (c *HTTPClient) attachCredential(_ *resty.Client, r *resty.Request) error {
	r.Header.Del("Authorization")
	r.Token = ""

	token, err := c.tokens.Get(r.Context())
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	if token != "" {
		r.SetAuthToken(token)
	}
	return nil
}

func (c *HTTPClient) logResponse(_ *resty.Client, resp *resty.Response) error {
	c.log.Debug(resp.Request.Context(), "http request",
		"method", resp.Request.Method,
		"url", resp.Request.URL,
		"status", resp.StatusCode(),
		"elapsed", resp.Time(),
	)
	return nil
}

// do executes one request. out, when non-nil, receives the decoded JSON body
// of a successful response.
func (c *HTTPClient) do(ctx context.Context, method, path string, out any, build func(r *resty.Request)) error {
	r := c.rc.R().SetContext(ctx).SetError(&errorBody{})
	if out != nil {
		r.SetResult(out)
	}
	if build != nil {
		build(r)
	}

	resp, err := r.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	if resp.IsError() {
		return responseError(resp)
	}
	return nil
}

func responseError(resp *resty.Response) error {
	var detail string
	if body, ok := resp.Error().(*errorBody); ok {
		detail = body.message()
	}
	if detail == "" {
		detail = strings.TrimSpace(string(resp.Body()))
	}
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen] + "..."
	}
	return &APIError{StatusCode: resp.StatusCode(), Detail: detail}
}
