package handler

import (
    "context"
    "net/http"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/sports-marketplace/internal/middleware"
    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/repository"
    "github.com/iliyamo/sports-marketplace/internal/service"
)

type fakeAccounts struct {
    mu        sync.Mutex
    byID      map[string]model.User
    passwords map[string]string // email -> password
}

func newFakeAccounts() *fakeAccounts {
    return &fakeAccounts{byID: map[string]model.User{}, passwords: map[string]string{}}
}

func (f *fakeAccounts) Register(_ context.Context, in service.RegisterInput) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    email := strings.ToLower(strings.TrimSpace(in.Email))
    if len(in.Password) < 8 {
        return model.User{}, service.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
    }
    if _, ok := f.passwords[email]; ok {
        return model.User{}, service.BusinessError{Msg: "email already registered"}
    }
    u := model.User{ID: "user-" + email, Email: email, Name: in.Name, Role: model.ParseRole(strings.ToUpper(in.Role)), IsActive: true}
    f.byID[u.ID] = u
    f.passwords[email] = in.Password
    return u, nil
}

func (f *fakeAccounts) Authenticate(_ context.Context, email, password string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    email = strings.ToLower(strings.TrimSpace(email))
    if f.passwords[email] != password {
        return model.User{}, service.ErrInvalidCredentials
    }
    return f.byID["user-"+email], nil
}

func (f *fakeAccounts) Get(_ context.Context, id string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.byID[id]
    if !ok {
        return u, service.NotFoundError{Resource: "user"}
    }
    return u, nil
}

type storedToken struct {
    userID  string
    exp     time.Time
    revoked bool
}

type fakeTokens struct {
    mu     sync.Mutex
    byHash map[string]*storedToken
}

func newFakeTokens() *fakeTokens { return &fakeTokens{byHash: map[string]*storedToken{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID, hash string, exp time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.byHash[hash] = &storedToken{userID: userID, exp: exp}
    return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.byHash[hash]
    if !ok || t.revoked || !now.Before(t.exp) {
        return "", repository.ErrNotFound
    }
    return t.userID, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if t, ok := f.byHash[hash]; ok {
        t.revoked = true
    }
    return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, t := range f.byHash {
        if t.userID == userID {
            t.revoked = true
        }
    }
    return nil
}

func (f *fakeTokens) active(userID string) int {
    f.mu.Lock()
    defer f.mu.Unlock()
    n := 0
    for _, t := range f.byHash {
        if t.userID == userID && !t.revoked {
            n++
        }
    }
    return n
}

func authServer() (*echo.Echo, *fakeTokens) {
    tokens := newFakeTokens()
    h := NewAuthHandler(AuthConfig{JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 7}, newFakeAccounts(), tokens)
    e := newEcho()
    g := e.Group("/v1/auth")
    g.POST("/register", h.Register)
    g.POST("/login", h.Login)
    g.POST("/refresh", h.Refresh)
    g.POST("/refresh-access", h.RefreshAccess)
    g.POST("/logout", h.Logout)
    e.GET("/v1/me", h.Me, middleware.JWTAuth(secret))
    return e, tokens
}

func TestRegisterLoginAndMe(t *testing.T) {
    e, tokens := authServer()

    rec := do(e, http.MethodPost, "/v1/auth/register", "",
        `{"email":"Coach@Example.com","name":"Coach","password":"longenough","role":"provider"}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    reg := decode[authResp](t, rec)
    assert.Equal(t, "coach@example.com", reg.User.Email)
    assert.Equal(t, model.RoleProvider, reg.User.Role)
    assert.NotEmpty(t, reg.Access.Token)
    assert.Equal(t, 1, tokens.active(reg.User.ID))

    rec = do(e, http.MethodPost, "/v1/auth/register", "", `{"email":"coach@example.com","password":"longenough"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)
    rec = do(e, http.MethodPost, "/v1/auth/register", "", `{"email":"x@example.com","password":"short"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = do(e, http.MethodPost, "/v1/auth/login", "", `{"email":"coach@example.com","password":"wrong-password"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = do(e, http.MethodPost, "/v1/auth/login", "", `{"email":"","password":""}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = do(e, http.MethodPost, "/v1/auth/login", "", `{"email":"coach@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    login := decode[authResp](t, rec)
    assert.Equal(t, 2, tokens.active(login.User.ID))

    rec = do(e, http.MethodGet, "/v1/me", "Bearer "+login.Access.Token, "")
    require.Equal(t, http.StatusOK, rec.Code)
    me := decode[userPart](t, rec)
    assert.Equal(t, "Coach", me.Name)
    assert.Equal(t, model.RoleProvider, me.Role)
}

func TestRefreshRotates(t *testing.T) {
    e, tokens := authServer()
    rec := do(e, http.MethodPost, "/v1/auth/register", "", `{"email":"a@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    first := decode[authResp](t, rec)

    body := `{"refresh_token":"` + first.Refresh.Token + `"}`
    rec = do(e, http.MethodPost, "/v1/auth/refresh-access", "", body)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, tokens.active(first.User.ID))

    rec = do(e, http.MethodPost, "/v1/auth/refresh", "", body)
    require.Equal(t, http.StatusOK, rec.Code)
    second := decode[authResp](t, rec)
    assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)
    assert.Equal(t, 1, tokens.active(first.User.ID))

    // The rotated token is spent.
    rec = do(e, http.MethodPost, "/v1/auth/refresh", "", body)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = do(e, http.MethodPost, "/v1/auth/refresh", "", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
    e, tokens := authServer()
    rec := do(e, http.MethodPost, "/v1/auth/register", "", `{"email":"a@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    reg := decode[authResp](t, rec)
    rec = do(e, http.MethodPost, "/v1/auth/login", "", `{"email":"a@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, 2, tokens.active(reg.User.ID))

    rec = do(e, http.MethodPost, "/v1/auth/logout", "", `{"refresh_token":"`+reg.Refresh.Token+`"}`)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, 1, tokens.active(reg.User.ID))

    rec = do(e, http.MethodPost, "/v1/auth/logout", "", `{"refresh_token":"`+reg.Refresh.Token+`"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec = do(e, http.MethodPost, "/v1/auth/logout", "Bearer "+reg.Access.Token, "")
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, 0, tokens.active(reg.User.ID))

    assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/auth/logout", "", "").Code)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/logout", "Bearer nope", "").Code)
}
