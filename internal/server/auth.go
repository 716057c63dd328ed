package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Post     string `json:"post"`
	IBAN     string `json:"iban"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.profileSvc.Signup(c.Request.Context(), profiledomain.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Post:     req.Post,
		IBAN:     req.IBAN,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.startSession(c, profile)
	c.JSON(http.StatusCreated, profile)
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	allowed, err := s.logins.Allow(c.Request.Context(), c.ClientIP())
	if err != nil {
		s.log.Warn("login rate limiter unavailable", zap.Error(err))
	}
	if !allowed {
		c.Header("Retry-After", "60")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	profile, err := s.profileSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.startSession(c, profile)
	c.JSON(http.StatusOK, profile)
}

func (s *Server) Logout(c *gin.Context) {
	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) startSession(c *gin.Context, profile profiledomain.Profile) {
	raw, expiresAt, err := s.tokens.Issue(profile.ID.String(), time.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.sessions.Set(c, raw, expiresAt)
}
