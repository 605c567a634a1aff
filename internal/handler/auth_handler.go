package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssgb-dev/logbook-api/internal/models"
	"github.com/ssgb-dev/logbook-api/internal/service"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/response"
)

// AuthHandler wires the token endpoints to the auth service. The token
// endpoint takes a form body so existing web clients keep working.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Token godoc
// @Summary Issue access token
// @Description Authenticate with user id and password, form encoded
// @Tags Authentication
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "User id"
// @Param password formData string true "Password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "username and password are required"))
		return
	}

	meta := service.LoginMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	pair, err := h.service.Login(c.Request.Context(), username, password, meta)
	if err != nil {
		response.Error(c, err)
		return
	}

	setRefreshCookie(c, pair.RefreshToken)
	response.JSON(c, http.StatusOK, pair.Login, nil)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange the refresh token for a new token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshRequest false "Refresh payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /token/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		// Fall back to the cookie used by browser clients.
		if cookie, cookieErr := c.Cookie(refreshCookieName); cookieErr == nil {
			req.RefreshToken = cookie
		}
	}
	if req.RefreshToken == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token required"))
		return
	}

	meta := service.LoginMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken, meta)
	if err != nil {
		response.Error(c, err)
		return
	}

	setRefreshCookie(c, pair.RefreshToken)
	response.JSON(c, http.StatusOK, pair.Login, nil)
}

const refreshCookieName = "refresh_token"

func setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, 7*24*3600, "/token", "", false, true)
}
