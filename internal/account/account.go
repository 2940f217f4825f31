package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/backend"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/storage"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	tokenKey     = "auth_token"
	favoritesKey = "favorites"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrSessionExpired   = errors.New("session expired")
)

type API interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.AuthResult, error)
	Register(ctx context.Context, reg backend.Registration) (backend.AuthResult, error)
	Profile(ctx context.Context, token string) (domain.User, error)
	UpdateUser(ctx context.Context, token string, patch backend.UserPatch) error
}

// Account is the signed-in user of one session plus the guest favorites
// kept before sign-in.
type Account struct {
	mu    sync.RWMutex
	user  *domain.User
	token string

	api     API
	storage storage.Storage
	sfg     singleflight.Group
	now     func() time.Time
	log     *zap.Logger
}

func New(api API, st storage.Storage, log *zap.Logger) *Account {
	return &Account{api: api, storage: st, now: time.Now, log: logger.OrNop(log)}
}

func (a *Account) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil
}

// User returns a copy of the signed-in user.
func (a *Account) User() (domain.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return domain.User{}, false
	}
	return cloneUser(*a.user), true
}

func (a *Account) Login(ctx context.Context, email, password string) (domain.User, error) {
	var v domain.ValidationError
	v.Require("email", email)
	v.Require("password", password)
	if err := v.Err(); err != nil {
		return domain.User{}, err
	}

	res, err := a.api.Login(ctx, backend.Credentials{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	a.signIn(ctx, res)
	return a.mergeGuestFavorites(ctx), nil
}

type RegisterForm struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (f RegisterForm) validate() error {
	var v domain.ValidationError
	v.Require("name", f.Name)
	v.Require("email", f.Email)
	v.Require("password", f.Password)
	if f.Email != "" && !strings.Contains(f.Email, "@") {
		v.Add("email", "invalid")
	}
	if f.Password != f.PasswordConfirm {
		v.Add("passwordConfirm", "passwords do not match")
	}
	return v.Err()
}

func (a *Account) Register(ctx context.Context, form RegisterForm) (domain.User, error) {
	if err := form.validate(); err != nil {
		return domain.User{}, err
	}

	res, err := a.api.Register(ctx, backend.Registration{
		Name:     strings.TrimSpace(form.Name),
		Surname:  strings.TrimSpace(form.Surname),
		Email:    strings.TrimSpace(form.Email),
		Phone:    strings.TrimSpace(form.Phone),
		Password: form.Password,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	a.signIn(ctx, res)
	return a.mergeGuestFavorites(ctx), nil
}

func (a *Account) signIn(ctx context.Context, res backend.AuthResult) {
	u := res.User
	a.mu.Lock()
	a.user = &u
	a.token = res.Token
	a.mu.Unlock()

	if err := a.storage.Set(ctx, tokenKey, []byte(res.Token)); err != nil {
		logger.FromContext(ctx, a.log).Warn("token persist failed", zap.Error(err))
	}
}

// Restore signs the session back in from the persisted token. Concurrent
// calls share one profile request. An expired token is dropped without a
// network call.
func (a *Account) Restore(ctx context.Context) error {
	if a.IsAuthenticated() {
		return nil
	}

	raw, err := a.storage.Get(ctx, tokenKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(raw) == 0) {
		return ErrNotAuthenticated
	}
	if err != nil {
		logger.FromContext(ctx, a.log).Warn("token load failed", zap.Error(err))
		return ErrNotAuthenticated
	}
	token := string(raw)

	if a.expired(token) {
		a.Logout(ctx)
		return ErrSessionExpired
	}

	_, err, _ = a.sfg.Do(token, func() (interface{}, error) {
		u, err := a.api.Profile(ctx, token)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.user = &u
		a.token = token
		a.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			a.Logout(ctx)
			return ErrSessionExpired
		}
		return fmt.Errorf("restore session: %w", err)
	}
	return nil
}

// expired reads the exp claim without verifying the signature; the backend
// does the verification. Opaque tokens are never treated as expired.
func (a *Account) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !a.now().Before(exp.Time)
}

func (a *Account) Logout(ctx context.Context) {
	a.mu.Lock()
	a.user = nil
	a.token = ""
	a.mu.Unlock()

	if err := a.storage.Delete(ctx, tokenKey); err != nil {
		logger.FromContext(ctx, a.log).Warn("token delete failed", zap.Error(err))
	}
}

// RecordOrder prepends order to the user's history and appends addr to the
// address book unless an identical address is already there. Both go out in
// one update; local state changes only after it succeeds.
func (a *Account) RecordOrder(ctx context.Context, addr *domain.Address, order domain.Order) error {
	a.mu.RLock()
	if a.user == nil {
		a.mu.RUnlock()
		return ErrNotAuthenticated
	}
	token := a.token
	addresses := append(domain.Addresses(nil), a.user.Addresses...)
	history := append([]domain.Order{order.Clone()}, a.user.Orders...)
	a.mu.RUnlock()

	if addr != nil {
		addresses, _ = addresses.AppendUnique(*addr)
	}

	if err := a.api.UpdateUser(ctx, token, backend.UserPatch{Addresses: addresses, Orders: history}); err != nil {
		return fmt.Errorf("record order: %w", err)
	}

	a.mu.Lock()
	if a.user != nil {
		a.user.Addresses = addresses
		a.user.Orders = history
	}
	a.mu.Unlock()
	return nil
}

// ToggleFavorite flips productID in the favorites list and reports whether
// it is now a favorite. Guests keep their list in session storage.
func (a *Account) ToggleFavorite(ctx context.Context, productID domain.ID) (bool, error) {
	a.mu.RLock()
	signedIn := a.user != nil
	var current []domain.ID
	token := a.token
	if signedIn {
		current = append(current, a.user.Favorites...)
	}
	a.mu.RUnlock()

	if !signedIn {
		current = a.guestFavorites(ctx)
	}

	next, active := toggle(current, productID)

	if !signedIn {
		a.saveGuestFavorites(ctx, next)
		return active, nil
	}

	if err := a.api.UpdateUser(ctx, token, backend.UserPatch{Favorites: &next}); err != nil {
		return !active, fmt.Errorf("update favorites: %w", err)
	}
	a.mu.Lock()
	if a.user != nil {
		a.user.Favorites = next
	}
	a.mu.Unlock()
	return active, nil
}

func (a *Account) Favorites(ctx context.Context) []domain.ID {
	a.mu.RLock()
	if a.user != nil {
		out := append([]domain.ID(nil), a.user.Favorites...)
		a.mu.RUnlock()
		return out
	}
	a.mu.RUnlock()
	return a.guestFavorites(ctx)
}

func (a *Account) guestFavorites(ctx context.Context) []domain.ID {
	raw, err := a.storage.Get(ctx, favoritesKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.FromContext(ctx, a.log).Warn("favorites load failed", zap.Error(err))
		}
		return nil
	}
	var ids []domain.ID
	if err := json.Unmarshal(raw, &ids); err != nil {
		logger.FromContext(ctx, a.log).Warn("stored favorites are corrupt, ignoring", zap.Error(err))
		return nil
	}
	return ids
}

func (a *Account) saveGuestFavorites(ctx context.Context, ids []domain.ID) {
	if ids == nil {
		ids = []domain.ID{}
	}
	raw, err := json.Marshal(ids)
	if err == nil {
		err = a.storage.Set(ctx, favoritesKey, raw)
	}
	if err != nil {
		logger.FromContext(ctx, a.log).Warn("favorites persist failed", zap.Error(err))
	}
}

// mergeGuestFavorites folds favorites collected as a guest into the
// signed-in user. A failed merge keeps the guest list for the next try.
func (a *Account) mergeGuestFavorites(ctx context.Context) domain.User {
	guest := a.guestFavorites(ctx)
	u, _ := a.User()
	if len(guest) == 0 {
		return u
	}

	merged := append([]domain.ID(nil), u.Favorites...)
	for _, id := range guest {
		if !contains(merged, id) {
			merged = append(merged, id)
		}
	}
	if len(merged) == len(u.Favorites) {
		_ = a.storage.Delete(ctx, favoritesKey)
		return u
	}

	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()
	if err := a.api.UpdateUser(ctx, token, backend.UserPatch{Favorites: &merged}); err != nil {
		logger.FromContext(ctx, a.log).Warn("merging guest favorites failed", zap.Error(err))
		return u
	}

	a.mu.Lock()
	if a.user != nil {
		a.user.Favorites = merged
	}
	a.mu.Unlock()
	if err := a.storage.Delete(ctx, favoritesKey); err != nil {
		logger.FromContext(ctx, a.log).Warn("favorites delete failed", zap.Error(err))
	}
	u.Favorites = merged
	return u
}

func toggle(ids []domain.ID, id domain.ID) ([]domain.ID, bool) {
	for i, existing := range ids {
		if existing.String() == id.String() {
			out := append(append([]domain.ID(nil), ids[:i]...), ids[i+1:]...)
			return out, false
		}
	}
	return append(append([]domain.ID(nil), ids...), id), true
}

func contains(ids []domain.ID, id domain.ID) bool {
	for _, existing := range ids {
		if existing.String() == id.String() {
			return true
		}
	}
	return false
}

func cloneUser(u domain.User) domain.User {
	u.Addresses = append(domain.Addresses(nil), u.Addresses...)
	u.Favorites = append([]domain.ID(nil), u.Favorites...)
	orders := make([]domain.Order, len(u.Orders))
	for i, o := range u.Orders {
		orders[i] = o.Clone()
	}
	u.Orders = orders
	return u
}
