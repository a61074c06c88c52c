package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/service"
    "github.com/iliyamo/sports-marketplace/internal/utils"
)

// AuthConfig carries the token settings the auth endpoints need.
type AuthConfig struct {
    JWTSecret      string
    AccessTTLMin   int
    RefreshTTLDays int
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg      AuthConfig
    Accounts Accounts
    Tokens   RefreshTokens
    Now      func() time.Time
}

func NewAuthHandler(cfg AuthConfig, accounts Accounts, tokens RefreshTokens) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Accounts: accounts, Tokens: tokens, Now: time.Now}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email"`
    Name     string `json:"name"`
    Password string `json:"password"`
    Role     string `json:"role"` // CLIENT | PROVIDER
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    string     `json:"id"`
    Email string     `json:"email"`
    Name  string     `json:"name"`
    Role  model.Role `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()

    u, err := h.Accounts.Register(ctx, service.RegisterInput{
        Email: req.Email, Name: req.Name, Password: req.Password, Role: req.Role,
    })
    if err != nil {
        return err
    }
    resp, err := h.issue(c, u)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return err
    }
    if strings.TrimSpace(req.Email) == "" || req.Password == "" {
        return badRequest("email/password required")
    }
    ctx, cancel := reqContext(c)
    defer cancel()

    u, err := h.Accounts.Authenticate(ctx, req.Email, req.Password)
    if err != nil {
        return err
    }
    resp, err := h.issue(c, u)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    u, hash, err := h.refreshOwner(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return err
    }
    resp, err := h.issue(c, u)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    u, _, err := h.refreshOwner(c)
    if err != nil {
        return err
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when no body token is given.  It is mounted without JWTAuth
// so that a client holding only a refresh token can still log out.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := reqContext(c)
    defer cancel()

    if raw != "" {
        hash := utils.HashRefreshRaw(raw)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash, h.Now()); err != nil {
            return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return err
        }
        return c.NoContent(http.StatusNoContent)
    }

    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return badRequest("provide Authorization header or refresh_token")
    }
    claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
    if err != nil {
        return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
    }
    if err := h.Tokens.RevokeAllForUser(ctx, claims.Subject); err != nil {
        return err
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    u, err := h.Accounts.Get(ctx, a.UserID)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}

// refreshOwner validates the refresh token in the body and loads its owner.
func (h *AuthHandler) refreshOwner(c echo.Context) (model.User, string, error) {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return model.User{}, "", badRequest("refresh_token required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := reqContext(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash, h.Now())
    if err != nil {
        return model.User{}, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh")
    }
    u, err := h.Accounts.Get(ctx, userID)
    if err != nil {
        return model.User{}, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh")
    }
    if !u.IsActive {
        return model.User{}, "", echo.NewHTTPError(http.StatusUnauthorized, "account disabled")
    }
    return u, hash, nil
}

// issue creates and stores a new token pair for u.
func (h *AuthHandler) issue(c echo.Context, u model.User) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, errors.Join(errors.New("save refresh token"), err)
    }
    return authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}
