package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	profiledomain "github.com/novotnytom/ocrinvoices/internal/profile/domain"
)

func (s *Server) ListProfiles(c *gin.Context) {
	profiles, err := s.profileSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) GetProfile(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	profile, err := s.profileSvc.Get(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) GetProfileImage(c *gin.Context) {
	path, err := s.profileSvc.ImagePath(strings.TrimSpace(c.Param("name")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Type", "image/jpeg")
	c.File(path)
}

func (s *Server) SaveProfile(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	zones := c.PostForm("zones")
	if name == "" || zones == "" {
		AbortWithError(c, newValidationError("missing_field", "name and zones are required"))
		return
	}

	req := profiledomain.SaveRequest{
		Name:      name,
		ZonesJSON: []byte(zones),
	}

	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Image = content
	}

	if err := s.profileSvc.Save(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "profile.save", "profile", name, map[string]any{
		"name": name,
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Profile '" + name + "' saved."})
}

func (s *Server) DeleteProfile(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if err := s.profileSvc.Delete(c.Request.Context(), name); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "profile.delete", "profile", name, nil)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Profile '" + name + "' deleted."})
}
