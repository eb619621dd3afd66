package apiclient

import (
	"context"
	"net/http"
)

// MsgInvalidCredentials is reported when the backend rejects a login.
const MsgInvalidCredentials = "Invalid credentials"

// User is the authenticated backend user.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ID        int64  `json:"id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// Login authenticates against the backend. On success the backend sets the
// session and anti-forgery cookies, which reach the source through Absorb.
// It returns the backend's confirmation message.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp detailResponse
	body := loginRequest{Username: username, Password: password}

	err := c.do(ctx, "login", http.MethodPost, "/api/auth/login/", body, &resp, "Login failed")
	if f, ok := AsFailure(err); ok && f.Kind == KindUnauthenticated {
		f.Message = MsgInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	return resp.Detail, nil
}

// Logout ends the backend session. The cleared session cookie reaches the
// source through Absorb.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/api/auth/logout/", nil, nil, "Logout failed")
}

// CurrentUser returns the user of the current session.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, "current user", http.MethodGet, "/api/auth/user/", nil, &user, "Failed to fetch user"); err != nil {
		return User{}, err
	}
	return user, nil
}

// CheckAuth reports whether the current session is valid.
func (c *Client) CheckAuth(ctx context.Context) bool {
	_, err := c.CurrentUser(ctx)
	return err == nil
}
