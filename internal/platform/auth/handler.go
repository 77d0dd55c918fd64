package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/apperr"
)

// RegisterInput creates an empresa together with its first admin usuario.
type RegisterInput struct {
	EmpresaNome string `json:"empresa_nome"`
	CNPJ        string `json:"cnpj,omitempty"`
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Accounts authenticates local credentials and registers new empresas.
type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (*Principal, error)
	Register(ctx context.Context, in RegisterInput) (*Principal, error)
}

type Handler struct {
	accounts Accounts
	tokens   *JWTManager
}

func NewHandler(accounts Accounts, tokens *JWTManager) *Handler {
	return &Handler{accounts: accounts, tokens: tokens}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	api.GET("/auth/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Usuario     *Principal `json:"usuario"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("email and password are required")
	}

	p, err := h.accounts.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusOK, p)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.accounts.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusCreated, p)
}

func (h *Handler) Me(c echo.Context) error {
	p := PrincipalFromContext(c)
	if p == nil {
		return apperr.Unauthenticated("authentication required")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"usuario":    p,
		"permissoes": p.Effective(),
	})
}

func (h *Handler) respondWithToken(c echo.Context, status int, p *Principal) error {
	token, exp, err := h.tokens.Issue(p)
	if err != nil {
		return err
	}
	return c.JSON(status, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		Usuario:     p,
	})
}
