package api

import (
	"context"
	"net/http"

	"github.com/findosh/moneymanager/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. A rejection by the server is a
// *CredentialsError; an unreachable server is a *TransportError.
func (c *Client) Login(ctx context.Context, email, password string) (models.Session, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.session()
}

// Register creates an account and returns its session
func (c *Client) Register(ctx context.Context, in models.RegisterInput) (models.Session, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, in, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.session()
}
