package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) getProfiles(c *gin.Context) {
	raw := c.Query("ids")
	ids := make([]string, 0)
	for _, id := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}

	profiles, err := s.profiles.GetProfiles(c.Request.Context(), UserID(c), ids)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}

func (s *Server) findProfileByUsername(c *gin.Context) {
	profile, err := s.profiles.FindByUsername(c.Request.Context(), UserID(c), c.Param("username"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
