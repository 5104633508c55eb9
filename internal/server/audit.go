package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/novotnytom/ocrinvoices/internal/audit/domain"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	if s.auditSvc == nil {
		c.JSON(http.StatusOK, gin.H{"logs": []auditdomain.Entry{}})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		Limit:      limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": entries})
}
