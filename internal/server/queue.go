package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	queuedomain "github.com/novotnytom/ocrinvoices/internal/queue/domain"
)

func (s *Server) ListQueues(c *gin.Context) {
	queues, err := s.queueSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, queues)
}

func (s *Server) GetQueue(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	queue, err := s.queueSvc.Get(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (s *Server) SaveQueue(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	profile := strings.TrimSpace(c.PostForm("profile"))
	values := c.PostForm("values")
	if name == "" || profile == "" || values == "" {
		AbortWithError(c, newValidationError("missing_field", "name, profile and values are required"))
		return
	}

	systemValues, err := parseStringMap(c.PostForm("systemValues"))
	if err != nil {
		AbortWithError(c, newValidationError("invalid_system_values", "systemValues is not a valid JSON object"))
		return
	}
	fieldMapping, err := parseStringMap(c.PostForm("fieldMapping"))
	if err != nil {
		AbortWithError(c, newValidationError("invalid_field_mapping", "fieldMapping is not a valid JSON object"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var uploads []queuedomain.FileUpload
	for _, file := range form.File["files"] {
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
		uploads = append(uploads, queuedomain.FileUpload{
			Filename: file.Filename,
			Content:  content,
		})
	}

	err = s.queueSvc.Save(c.Request.Context(), queuedomain.SaveRequest{
		Name:         name,
		Profile:      profile,
		Values:       []byte(values),
		SystemValues: systemValues,
		FieldMapping: fieldMapping,
		Files:        uploads,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "queue.save", "queue", name, map[string]any{
		"profile": profile,
		"pages":   len(uploads),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) DeleteQueue(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if err := s.queueSvc.Delete(c.Request.Context(), name); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "queue.delete", "queue", name, nil)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) GetQueueImage(c *gin.Context) {
	path, err := s.queueSvc.ImagePath(
		strings.TrimSpace(c.Param("name")),
		strings.TrimSpace(c.Param("filename")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.File(path)
}

func parseStringMap(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}
