package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/covergrid/docqa-console/pkg/metrics"
)

// ErrNoRefreshToken is returned when a 401 cannot be recovered because no
// refresh token is stored.
var ErrNoRefreshToken = errors.New("no refresh token available")

// refreshRequest is the wire shape of POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshResponse is the wire shape of the refresh exchange result.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// refreshAccess exchanges the refresh token for a new access token and
// persists it. Calls are keyed by the access token being replaced, so
// concurrent 401s on the same token collapse to a single exchange whose
// result every waiter shares.
func (c *Client) refreshAccess(ctx context.Context, staleAccess, refresh string) (string, error) {
	if refresh == "" {
		return "", ErrNoRefreshToken
	}

	v, err, _ := c.refreshGroup.Do(staleAccess, func() (any, error) {
		// Another waiter may have completed the exchange between our 401
		// and this call. Use the stored token if it already changed.
		if access, _, err := c.tokens.Tokens(ctx); err == nil && access != "" && access != staleAccess {
			return access, nil
		}

		var out refreshResponse
		if err := c.doJSONNoAuth(ctx, "auth.refresh", "POST", "/auth/refresh", refreshRequest{RefreshToken: refresh}, &out); err != nil {
			metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, err
		}
		if out.AccessToken == "" {
			metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, &Error{Kind: KindDecode, Op: "auth.refresh", Err: errors.New("refresh response missing access_token")}
		}
		if err := c.tokens.StoreAccess(ctx, out.AccessToken); err != nil {
			metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, err
		}
		metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeOK).Inc()
		c.log.Debug("access token refreshed")
		return out.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// nearExpiry reports whether the access token is a JWT whose exp claim falls
// within the refresh skew. Claims are parsed without signature verification;
// this is a scheduling hint, not an authorization decision.
func (c *Client) nearExpiry(access string) bool {
	if access == "" || c.refreshSkew <= 0 {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) < c.refreshSkew
}
