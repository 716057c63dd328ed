package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billdomain "github.com/vtk-it/declaro/internal/bill/domain"
	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
)

const contextProfileKey = "profile"

// AuthRequired verifies the session cookie and loads the signed-in profile
// into the request context. Privileges come from the profile row, not the
// token, so revocations apply on the next request.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.tokens.Verify(raw)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, err)
			return
		}

		id, err := snowflake.ParseString(claims.ProfileID)
		if err != nil || id == 0 {
			s.sessions.Clear(c)
			AbortWithError(c, ErrUnauthorized)
			return
		}

		profile, err := s.profileSvc.GetByID(c.Request.Context(), id)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextProfileKey, profile)
		c.Next()
	}
}

func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := currentProfile(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !profile.Admin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentProfile(c *gin.Context) (profiledomain.Profile, bool) {
	v, ok := c.Get(contextProfileKey)
	if !ok {
		return profiledomain.Profile{}, false
	}
	profile, ok := v.(profiledomain.Profile)
	return profile, ok
}

func currentActor(c *gin.Context) (billdomain.Actor, bool) {
	profile, ok := currentProfile(c)
	if !ok {
		return billdomain.Actor{}, false
	}
	return billdomain.Actor{
		UID:          profile.ID.String(),
		Admin:        profile.Admin,
		AllowedPosts: profile.AllowedPosts,
	}, true
}
