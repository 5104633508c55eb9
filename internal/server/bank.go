package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	bankdomain "github.com/novotnytom/ocrinvoices/internal/bank/domain"
)

func (s *Server) SaveBankBatch(c *gin.Context) {
	var req struct {
		Name       string                 `json:"name"`
		Operations []bankdomain.Operation `json:"operations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.bankSvc.SaveBatch(c.Request.Context(), req.Name, req.Operations); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "bank.save_batch", "bank_batch", req.Name, map[string]any{
		"operations": len(req.Operations),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok", "saved_as": req.Name})
}

func (s *Server) DeleteBankBatch(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if err := s.bankSvc.DeleteBatch(c.Request.Context(), name); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "bank.delete_batch", "bank_batch", name, nil)

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "name": name})
}

func (s *Server) ListBankBatches(c *gin.Context) {
	names, err := s.bankSvc.ListBatches(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": names})
}

func (s *Server) LoadBankBatch(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	operations, err := s.bankSvc.LoadBatch(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operations": operations})
}

// ImportBankXML parses an uploaded statement and returns its operations.
// Nothing is persisted; the client saves the batch separately.
func (s *Server) ImportBankXML(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("missing_file", "file is required"))
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".xml") {
		AbortWithError(c, newValidationError("invalid_file_type", "only XML files allowed"))
		return
	}

	f, err := file.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer f.Close()

	operations, err := s.bankSvc.ImportXML(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(operations), "operations": operations})
}

func (s *Server) SaveBankMatch(c *gin.Context) {
	var req struct {
		BankID    string `json:"bank_id"`
		InvoiceID string `json:"invoice_id"`
		BatchName string `json:"batch_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.bankSvc.SaveMatch(c.Request.Context(), req.BatchName, req.BankID, req.InvoiceID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "bank.save_match", "bank_operation", req.BankID, map[string]any{
		"batch":      req.BatchName,
		"invoice_id": req.InvoiceID,
	})

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"matched": gin.H{"bank_id": req.BankID, "invoice_id": req.InvoiceID},
	})
}

func (s *Server) GetBankMatchStatus(c *gin.Context) {
	invoiceID, err := s.bankSvc.MatchStatus(
		c.Request.Context(),
		strings.TrimSpace(c.Query("batch_name")),
		strings.TrimSpace(c.Query("bank_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched_invoice_id": invoiceID})
}

func (s *Server) SaveInitialBankMatch(c *gin.Context) {
	var req struct {
		BatchName string            `json:"batch_name"`
		Matches   map[string]string `json:"matches"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.bankSvc.SaveInitialMatch(c.Request.Context(), req.BatchName, req.Matches); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "bank.save_initial_match", "bank_batch", req.BatchName, map[string]any{
		"matches": len(req.Matches),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(req.Matches)})
}

func (s *Server) ConfirmBankMatch(c *gin.Context) {
	var req struct {
		BatchName string `json:"batch_name"`
		BankID    string `json:"bank_id"`
		InvoiceID string `json:"invoice_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.bankSvc.ConfirmMatch(c.Request.Context(), req.BatchName, req.BankID, req.InvoiceID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "bank.confirm_match", "bank_operation", req.BankID, map[string]any{
		"batch":      req.BatchName,
		"invoice_id": req.InvoiceID,
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok", "confirmed": req.BankID})
}

func (s *Server) DeleteBankMatch(c *gin.Context) {
	var req struct {
		BatchName string `json:"batch_name"`
		BankID    string `json:"bank_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.bankSvc.DeleteMatch(c.Request.Context(), req.BatchName, req.BankID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c.Request.Context(), "bank.delete_match", "bank_operation", req.BankID, map[string]any{
		"batch": req.BatchName,
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok", "cleared": req.BankID})
}
