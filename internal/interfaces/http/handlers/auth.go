package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/application/middleware"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/interfaces/http/response"
)

// AuthHandler implements the shared-password gate: one password for the
// whole dashboard, exchanged for a signed session cookie.
type AuthHandler struct {
	session *middleware.SessionMiddleware
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(session *middleware.SessionMiddleware, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		session: session,
		logger:  logger,
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login checks the shared password and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "password is required")
		return
	}

	if !h.session.CheckPassword(req.Password) {
		h.logger.Warn("failed dashboard login", zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, "Invalid password")
		return
	}

	token, err := h.session.IssueToken(time.Now())
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		response.InternalError(c, "Failed to create session")
		return
	}

	c.SetCookie(middleware.SessionCookie, token, int(h.session.SessionTTL().Seconds()), "/", "", true, true)
	response.OK(c, gin.H{"status": "authenticated"})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", true, true)
	response.OK(c, gin.H{"status": "logged_out"})
}
