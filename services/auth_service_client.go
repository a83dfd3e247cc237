// services/auth_service_client.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"event-reward-system/models"
)

// ErrAuthorityUnavailable marks the authority service as unreachable or
// degraded: transport failure, timeout, non-2xx, or a response that does not
// match the documented shape. Callers decide the fail-open/fail-closed policy;
// this layer never coerces an outage to false.
var ErrAuthorityUnavailable = errors.New("authority service unavailable")

const defaultAuthTimeout = 3 * time.Second

// AuthClientConfig configures the authority service client explicitly; no
// environment reads happen inside the client.
type AuthClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthServiceClient calls the external authority service, the system of record
// for user login facts.
type AuthServiceClient struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

func NewAuthServiceClient(cfg AuthClientConfig, logger *log.Logger) *AuthServiceClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}
	return &AuthServiceClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// loginHistoryResponse is the authority service's envelope:
// { "success": bool, "data": { "hasLoginHistory": bool } }
type loginHistoryResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		HasLoginHistory *bool `json:"hasLoginHistory"`
	} `json:"data"`
}

// HasLoginHistory asks the authority service whether the user has ever logged
// in. The caller's verified identity is forwarded as trust headers. There is
// no retry here; retry policy belongs to the caller.
func (c *AuthServiceClient) HasLoginHistory(ctx context.Context, user models.UserIdentity) (bool, error) {
	endpoint := fmt.Sprintf("%s/users/%s/login-history", c.baseURL, url.PathEscape(user.ID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build login-history request: %w", err)
	}
	req.Header.Set("x-user-id", user.ID)
	req.Header.Set("x-user-email", user.Email)
	req.Header.Set("x-user-role", user.Role)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// caller cancelled, not an upstream outage
			return false, ctx.Err()
		}
		c.logger.Printf("[AUTH_CLIENT] login-history call failed: %v", err)
		return false, ErrAuthorityUnavailable
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("[AUTH_CLIENT] login-history returned %d: %s", resp.StatusCode, string(body))
		return false, ErrAuthorityUnavailable
	}

	var out loginHistoryResponse
	if err := json.Unmarshal(body, &out); err != nil || !out.Success || out.Data == nil || out.Data.HasLoginHistory == nil {
		c.logger.Printf("[AUTH_CLIENT] unexpected login-history response shape: %s", string(body))
		return false, ErrAuthorityUnavailable
	}

	return *out.Data.HasLoginHistory, nil
}
