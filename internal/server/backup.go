package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) CreateBackup(c *gin.Context) {
	name, err := s.backupSvc.Create(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "backup.create", "backup", name, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Backup created", "file": name})
}
