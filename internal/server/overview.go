package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	overviewdomain "github.com/novotnytom/ocrinvoices/internal/overview/domain"
	"go.uber.org/zap"
)

func (s *Server) AddOverviewBatch(c *gin.Context) {
	var raw []json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// Decoded per record so the selected-by-default rule and required-field
	// checks apply.
	invoices := make([]overviewdomain.Invoice, 0, len(raw))
	for _, r := range raw {
		inv, err := overviewdomain.DecodeInvoice(r)
		if err != nil {
			AbortWithError(c, newValidationError("invalid_invoice", err.Error()))
			return
		}
		invoices = append(invoices, inv)
	}

	count, err := s.overviewSvc.AddBatch(c.Request.Context(), invoices)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "overview.add_batch", "overview", "", map[string]any{
		"count": count,
	})

	c.JSON(http.StatusOK, gin.H{"status": "Batch added", "count": count})
}

func (s *Server) SaveOverviewInvoice(c *gin.Context) {
	var record map[string]any
	if err := c.ShouldBindJSON(&record); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.overviewSvc.SaveInvoice(c.Request.Context(), record); err != nil {
		AbortWithError(c, err)
		return
	}

	id, _ := record["id"].(string)
	s.audit(c.Request.Context(), "overview.save_invoice", "invoice", id, nil)

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (s *Server) UpdateOverviewInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.overviewSvc.Patch(c.Request.Context(), id, fields); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "overview.update_invoice", "invoice", id, nil)

	c.JSON(http.StatusOK, gin.H{"status": "Invoice updated"})
}

func (s *Server) DeleteOverviewInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.overviewSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "overview.delete", "invoice", id, nil)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) DeleteAllOverviewInvoices(c *gin.Context) {
	if err := s.overviewSvc.DeleteAll(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "overview.delete_all", "overview", "", nil)

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) ListOverviewInvoices(c *gin.Context) {
	result, err := s.overviewSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	for _, sk := range result.Skipped {
		s.log.Warn("skipping unreadable overview record",
			zap.String("file", sk.File),
			zap.String("reason", sk.Reason),
		)
	}

	c.JSON(http.StatusOK, result.Invoices)
}

// ExportSelected streams the flat field-subset XML of the requested records.
func (s *Server) ExportSelected(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.overviewSvc.ExportSelected(c.Request.Context(), req.IDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/xml", doc)
}

// ExportFlexibee streams the winstrom accounting document. The body is a
// bare JSON array of record ids.
func (s *Server) ExportFlexibee(c *gin.Context) {
	var ids []string
	if err := c.ShouldBindJSON(&ids); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.exportSvc.Flexibee(c.Request.Context(), ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "overview.export_flexibee", "overview", "", map[string]any{
		"requested": len(ids),
	})

	c.Data(http.StatusOK, "application/xml", doc)
}
