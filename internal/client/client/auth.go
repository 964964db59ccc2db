package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/foodkeeper/internal/client/models"
	"github.com/go-resty/resty/v2"
)

// Login posts the credentials form-encoded (the backend reads an OAuth2
// password form: username + password) and returns the access token.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	var tr models.TokenResponse
	err := c.do(ctx, http.MethodPost, pathLogin, &tr, func(r *resty.Request) {
		r.SetFormData(map[string]string{
			"username": email,
			"password": password,
		})
	})
	if err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: login response has no access_token", ErrMalformedResponse)
	}
	return tr.AccessToken, nil
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.do(ctx, http.MethodPost, pathRegister, nil, func(r *resty.Request) {
		r.SetBody(req)
	})
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, pathMe, &u, nil); err != nil {
		return nil, err
	}
	return &u, nil
}
