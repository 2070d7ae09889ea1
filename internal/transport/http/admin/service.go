// Package admin serves the admin login and notification endpoints.
package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mallguide-server-go/internal/domain/auth"
	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/platform/errors"
	"mallguide-server-go/internal/platform/logging"
)

type Authenticator interface {
	Login(ctx context.Context, username, password, ip string) (*auth.LoginResult, bool, error)
	Logout(ctx context.Context, token string) error
}

type Publisher interface {
	Publish(topic string, args ...interface{})
}

type SessionCounter interface {
	Count() int
}

type StoreCounter interface {
	Count(ctx context.Context) (int, error)
}

// AuthStats reports session store counters.
type AuthStats interface {
	Stats(ctx context.Context) (map[string]any, error)
}

type Options struct {
	Gate     Authenticator
	Events   Publisher
	Sessions SessionCounter
	Stores   StoreCounter
	Auth     AuthStats
	Logger   *logging.Logger
}

// Service handles /admin-login, /admin-logout, /push-notification and /health.
type Service struct {
	gate     Authenticator
	events   Publisher
	sessions SessionCounter
	stores   StoreCounter
	auth     AuthStats
	logger   *logging.Logger
}

func NewService(opts Options) (*Service, error) {
	const op = "http.admin.new"
	if opts.Gate == nil {
		return nil, errors.New(errors.KindConfig, op, "gate is required")
	}
	if opts.Events == nil {
		return nil, errors.New(errors.KindConfig, op, "event publisher is required")
	}
	return &Service{
		gate:     opts.Gate,
		events:   opts.Events,
		sessions: opts.Sessions,
		stores:   opts.Stores,
		auth:     opts.Auth,
		logger:   opts.Logger,
	}, nil
}

func (s *Service) Register(_ context.Context, public, secured *gin.RouterGroup) {
	public.POST("/admin-login", s.handleLogin)
	public.POST("/admin-logout", s.handleLogout)
	public.GET("/health", s.handleHealth)
	secured.POST("/push-notification", s.handlePush)

	s.logger.InfoTag("HTTP", "admin routes registered")
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PushRequest struct {
	Message string `json:"message"`
}

// handleLogin godoc
// @Summary Admin login
// @Description Checks the static admin credentials and issues a session token.
// @Tags Admin
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "credentials"
// @Success 200 {object} object
// @Failure 401 {object} object
// @Router /admin-login [post]
func (s *Service) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	res, ok, err := s.gate.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		s.logger.ErrorTag("Auth", "login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errors.MessageOf(err)})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Login successful",
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
	})
}

// @Summary Admin logout
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object
// @Router /admin-logout [post]
func (s *Service) handleLogout(c *gin.Context) {
	if err := s.gate.Logout(c.Request.Context(), auth.TokenFromRequest(c.Request)); err != nil {
		s.logger.ErrorTag("Auth", "logout failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": errors.MessageOf(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

// handlePush godoc
// @Summary Broadcast a notification
// @Description Sends admin_response to every connected admin client.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param notification body PushRequest true "notification"
// @Success 200 {object} object
// @Failure 400 {object} object
// @Router /push-notification [post]
func (s *Service) handlePush(c *gin.Context) {
	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Notification message cannot be empty"})
		return
	}

	s.events.Publish(eventbus.EventAdminBroadcast, eventbus.AdminBroadcastData{
		Message: req.Message,
		Origin:  "http",
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification sent successfully"})
}

// @Summary Health check
// @Tags Admin
// @Produce json
// @Success 200 {object} object
// @Router /health [get]
func (s *Service) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.sessions != nil {
		body["sessions"] = s.sessions.Count()
	}
	if s.stores != nil {
		n, err := s.stores.Count(c.Request.Context())
		if err != nil {
			s.logger.WarnTag("HTTP", "health: %v", err)
			body["status"] = "degraded"
		} else {
			body["stores"] = n
		}
	}
	if s.auth != nil {
		stats, err := s.auth.Stats(c.Request.Context())
		if err != nil {
			s.logger.WarnTag("HTTP", "health: %v", err)
			body["status"] = "degraded"
		} else {
			body["auth"] = stats
		}
	}
	c.JSON(http.StatusOK, body)
}
