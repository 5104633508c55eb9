package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/novotnytom/ocrinvoices/internal/exporttemplate"
)

func (s *Server) SaveExportTemplate(c *gin.Context) {
	var fields []exporttemplate.Field
	if err := c.ShouldBindJSON(&fields); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.templateSvc.Save(c.Request.Context(), fields); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "export_template.save", "export_template", "default", map[string]any{
		"fields": len(fields),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Export template saved successfully."})
}

func (s *Server) LoadExportTemplate(c *gin.Context) {
	fields, err := s.templateSvc.Load(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fields)
}
