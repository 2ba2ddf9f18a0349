// Package accountclient talks to the account/identity REST service:
// numeric id to account mapping for notification content, and the
// notification endpoint itself.
package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/hpcfs/quotascan/pkg/quotascan"
)

const (
	ApiHttpTimeOutSeconds  = 60
	ApiRetryIntervalSecs   = 1
	ApiRetryTimeoutSeconds = 10

	// MinimumApiVersion is the oldest account service API this client
	// understands.
	MinimumApiVersion = "2.0.0"
)

type Client struct {
	client  *http.Client
	baseURL string
	token   string
	Timeout time.Duration

	apiVersion *version.Version
}

func New(baseURL, token string) *Client {
	return &Client{
		client:  &http.Client{Timeout: time.Duration(ApiHttpTimeOutSeconds) * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		Timeout: time.Duration(ApiHttpTimeOutSeconds) * time.Second,
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// do performs one API call and decodes the JSON response into response
// when it is non-nil. HTTP statuses are mapped onto the typed errors of
// errors.go.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, query url.Values, response interface{}) apiError {
	u := c.url(path)
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &ApiError{Err: err, Text: "Failed to construct API request"}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &ApiNetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ApiError{Err: err, Text: "Failed to read API response", StatusCode: resp.StatusCode}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ApiAuthorizationError{Text: "Not authorized for account service", StatusCode: resp.StatusCode, RawData: &data}
	case resp.StatusCode == http.StatusNotFound:
		return &ApiNotFoundError{Text: "Object not found on account service", StatusCode: resp.StatusCode, RawData: &data}
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return &ApiBadRequestError{Text: "Account service rejected request", StatusCode: resp.StatusCode, RawData: &data}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &ApiInternalError{Text: "Account service internal error", StatusCode: resp.StatusCode, RawData: &data}
	}

	if response != nil {
		if err := json.Unmarshal(data, response); err != nil {
			return &ApiError{Err: err, Text: "Failed to decode API response", StatusCode: resp.StatusCode, RawData: &data}
		}
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, response interface{}) error {
	if err := c.do(ctx, http.MethodGet, path, nil, query, response); err != nil {
		return err
	}
	return nil
}

func (c *Client) Post(ctx context.Context, path string, payload interface{}, response interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if apiErr := c.do(ctx, http.MethodPost, path, data, nil, response); apiErr != nil {
		return apiErr
	}
	return nil
}

type versionResponse struct {
	Version string `json:"version"`
}

// EnsureCompatibility fetches the service's API version and refuses to
// proceed when it is older than MinimumApiVersion. Transient network
// errors are retried for a short period, the service may still be
// warming up when a scan starts.
func (c *Client) EnsureCompatibility(ctx context.Context) error {
	op := "EnsureCompatibility"
	ctx, span := otel.Tracer(quotascan.TracerName).Start(ctx, op)
	defer span.End()
	logger := log.Ctx(ctx)

	var vr versionResponse
	err := wait.PollUntilContextTimeout(ctx, ApiRetryIntervalSecs*time.Second, ApiRetryTimeoutSeconds*time.Second, true,
		func(ctx context.Context) (bool, error) {
			apiErr := c.do(ctx, http.MethodGet, "api/version", nil, nil, &vr)
			if apiErr == nil {
				return true, nil
			}
			if _, transient := apiErr.(*ApiNetworkError); transient {
				logger.Warn().Err(apiErr).Msg("Account service unreachable, retrying")
				return false, nil
			}
			return false, apiErr
		})
	if err != nil {
		return err
	}

	apiVersion, err := version.NewVersion(vr.Version)
	if err != nil {
		return fmt.Errorf("account service reported unparseable version %q: %w", vr.Version, err)
	}
	minimum := version.Must(version.NewVersion(MinimumApiVersion))
	if apiVersion.LessThan(minimum) {
		logger.Error().Str("reported", apiVersion.String()).Str("minimum", MinimumApiVersion).
			Msg("Account service API version too old")
		return UnsupportedApiVersionError
	}
	c.apiVersion = apiVersion
	logger.Debug().Str("api_version", apiVersion.String()).Msg("Account service API version accepted")
	return nil
}
