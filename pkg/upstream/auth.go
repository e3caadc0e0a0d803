package upstream

import "context"

// loginRequest is the wire shape of POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair and persists both tokens.
// It does not fetch the user profile; the session stays unauthenticated
// until the bootstrap profile fetch succeeds.
func (c *Client) Login(ctx context.Context, username, password string) (TokenPair, error) {
	var pair TokenPair
	if err := c.doJSONNoAuth(ctx, "auth.login", "POST", "/auth/login", loginRequest{Username: username, Password: password}, &pair); err != nil {
		return TokenPair{}, err
	}
	if err := c.tokens.StorePair(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return TokenPair{}, &Error{Kind: KindAuth, Op: "auth.login", Err: err}
	}
	return pair, nil
}

// Logout discards the stored token pair. The platform has no server-side
// logout endpoint; forgetting the tokens ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.ClearTokens(ctx)
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if err := c.doJSON(ctx, "users.me", "GET", "/users/me", nil, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}
