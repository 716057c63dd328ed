package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
)

type UpdateProfileRequest struct {
	Name string `json:"name"`
	Post string `json:"post"`
	IBAN string `json:"iban"`
}

type SetPrivilegesRequest struct {
	Admin        bool     `json:"admin"`
	AllowedPosts []string `json:"allowed_posts"`
}

func (s *Server) GetOwnProfile(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) UpdateOwnProfile(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.profileSvc.Update(c.Request.Context(), profiledomain.UpdateProfileRequest{
		ID:   profile.ID,
		Name: req.Name,
		Post: req.Post,
		IBAN: req.IBAN,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) ListProfiles(c *gin.Context) {
	profiles, err := s.profileSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (s *Server) SetProfilePrivileges(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid value"))
		return
	}

	var req SetPrivilegesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.profileSvc.SetPrivileges(c.Request.Context(), profiledomain.SetPrivilegesRequest{
		ID:           id,
		Admin:        req.Admin,
		AllowedPosts: profiledomain.PostList(req.AllowedPosts),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
