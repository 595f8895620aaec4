package handler

import (
    "crypto/subtle"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cementerio-ledger/internal/config"
    "github.com/iliyamo/cementerio-ledger/internal/utils"
)

// AuthHandler issues tokens for the single configured administrator.
type AuthHandler struct {
    Cfg config.AuthConfig
}

func NewAuthHandler(cfg config.AuthConfig) *AuthHandler {
    return &AuthHandler{Cfg: cfg}
}

// ----- DTOs -----

type loginReq struct {
    User     string `json:"usuario" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type tokenResp struct {
    Success bool      `json:"success"`
    Token   string    `json:"token"`
    Expires time.Time `json:"expira"`
    Role    string    `json:"rol"`
}

// Login handles POST /api/admin/login.  It answers 503 while no admin
// password hash is configured.
func (h *AuthHandler) Login(c echo.Context) error {
    if h.Cfg.AdminPasswordHash == "" || h.Cfg.JWTSecret == "" {
        return fail(c, http.StatusServiceUnavailable, "acceso administrativo deshabilitado")
    }
    var req loginReq
    if msg, ok := bind(c, &req); !ok {
        return fail(c, http.StatusBadRequest, msg)
    }
    user := strings.TrimSpace(req.User)
    userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.Cfg.AdminUser)) == 1
    // always run bcrypt so a wrong user name costs as much as a wrong password
    passOK := utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password)
    if !userOK || !passOK {
        return fail(c, http.StatusUnauthorized, "credenciales inválidas")
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user, utils.RoleAdmin, h.Cfg.AccessTTL)
    if err != nil {
        return fail(c, http.StatusInternalServerError, "no se pudo emitir el token")
    }
    return c.JSON(http.StatusOK, tokenResp{Success: true, Token: access.Token, Expires: access.Exp, Role: utils.RoleAdmin})
}

// Me handles GET /api/admin/me and echoes the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
    sub, _ := c.Get("user_id").(string)
    role, _ := c.Get("role").(string)
    if sub == "" {
        return fail(c, http.StatusUnauthorized, "no autorizado")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "usuario": sub, "rol": role})
}
