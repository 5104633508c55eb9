package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	profiledomain "github.com/novotnytom/ocrinvoices/internal/profile/domain"
)

// TestOCR runs a one-off recognition pass: an uploaded page image plus a
// JSON array of zones, returning the recognized text per zone.
func (s *Server) TestOCR(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		AbortWithError(c, newValidationError("missing_image", "image is required"))
		return
	}

	var zones []profiledomain.Zone
	if err := json.Unmarshal([]byte(c.PostForm("zones")), &zones); err != nil {
		AbortWithError(c, newValidationError("invalid_zones", "zones is not a valid JSON array"))
		return
	}

	f, err := file.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	imageBytes, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	results, err := s.ocrSvc.Test(c.Request.Context(), imageBytes, zones)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ProcessZip extracts an uploaded zip of page scans into a temp batch and
// returns the pages seeded with the profile's zones.
func (s *Server) ProcessZip(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("missing_file", "file is required"))
		return
	}
	profileName := strings.TrimSpace(c.PostForm("profile"))
	if profileName == "" {
		AbortWithError(c, newValidationError("missing_profile", "profile is required"))
		return
	}

	f, err := file.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	zipBytes, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.batchSvc.ProcessZip(c.Request.Context(), zipBytes, profileName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "batch.process_zip", "temp_batch", result.BatchID, map[string]any{
		"profile": profileName,
		"pages":   len(result.Pages),
	})

	c.JSON(http.StatusOK, result)
}

func (s *Server) GetTempImage(c *gin.Context) {
	path, err := s.batchSvc.ImagePath(
		strings.TrimSpace(c.Param("batch")),
		strings.TrimSpace(c.Param("filename")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.File(path)
}
