package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name     string `json:"name"`
	Surname  string `json:"surname,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// UserPatch is a partial user update. Nil fields are not sent.
type UserPatch struct {
	Name      *string          `json:"name,omitempty"`
	Phone     *string          `json:"phone,omitempty"`
	Addresses domain.Addresses `json:"addresses,omitempty"`
	Orders    []domain.Order   `json:"orders,omitempty"`
	Favorites *[]domain.ID     `json:"favorites,omitempty"`
}

func (cl *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	body, err := cl.do(ctx, call{endpoint: "users.login", method: http.MethodPost, path: "/api/users/login", body: creds})
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuth(body)
}

func (cl *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	body, err := cl.do(ctx, call{endpoint: "users.register", method: http.MethodPost, path: "/api/users/register", body: reg})
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuth(body)
}

func (cl *Client) Profile(ctx context.Context, token string) (domain.User, error) {
	body, err := cl.do(ctx, call{endpoint: "users.profile", method: http.MethodGet, path: "/api/users/profile", token: token})
	if err != nil {
		return domain.User{}, err
	}
	var out struct {
		User domain.User `json:"user"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.User{}, fmt.Errorf("decode profile: %w", err)
	}
	return out.User, nil
}

func (cl *Client) UpdateUser(ctx context.Context, token string, patch UserPatch) error {
	_, err := cl.do(ctx, call{endpoint: "users.update", method: http.MethodPut, path: "/api/users", body: patch, token: token})
	return err
}

func decodeAuth(body []byte) (AuthResult, error) {
	var out AuthResult
	if err := json.Unmarshal(body, &out); err != nil {
		return AuthResult{}, fmt.Errorf("decode auth response: %w", err)
	}
	if out.Token == "" {
		return AuthResult{}, &APIError{Status: http.StatusOK, Message: "missing token in response"}
	}
	return out, nil
}
