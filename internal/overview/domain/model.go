package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Invoice is one finalized record of the registry. The typed fields are what
// the listing and selected-fields export read; records may carry arbitrary
// extra keys (notably "values" and "invoiceItems") which stay in the stored
// document and are consumed by the accounting export.
type Invoice struct {
	ID             string         `json:"id"`
	BatchName      string         `json:"batch_name"`
	InvoiceDate    string         `json:"invoice_date"`
	InvoiceNumber  string         `json:"invoice_number"`
	TemplateUsed   string         `json:"template_used"`
	TotalValue     float64        `json:"total_value"`
	AccountingInfo *string        `json:"accounting_info,omitempty"`
	CompanyID      *string        `json:"company_id,omitempty"`
	Selected       bool           `json:"selected"`
	Order          int            `json:"order"`
	ImageFilename  *string        `json:"imageFilename,omitempty"`
	SystemValues   map[string]any `json:"systemValues"`

	Values       map[string]any   `json:"values,omitempty"`
	InvoiceItems []map[string]any `json:"invoiceItems,omitempty"`
}

// SkippedRecord names a registry file that failed to decode during a listing
// and why. Listings keep going past these.
type SkippedRecord struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

type ListResult struct {
	Invoices []Invoice
	Skipped  []SkippedRecord
}

type Service interface {
	// AddBatch writes one record per invoice, overwriting by id. Returns the
	// number of records written.
	AddBatch(ctx context.Context, invoices []Invoice) (int, error)
	// SaveInvoice stores an arbitrary record document. The "id" key is
	// required; everything else is kept verbatim.
	SaveInvoice(ctx context.Context, record map[string]any) error
	// Patch shallow-merges fields into the stored record. Nested maps are
	// replaced wholesale.
	Patch(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	// List returns all readable records sorted ascending by Order.
	List(ctx context.Context) (ListResult, error)
	// LoadRaw returns the stored document bytes for one record.
	LoadRaw(ctx context.Context, id string) ([]byte, error)
	// ExportSelected projects the fixed field subset of each found id into a
	// flat XML document, in input order, skipping missing ids.
	ExportSelected(ctx context.Context, ids []string) ([]byte, error)
}

var (
	ErrNotFound  = errors.New("invoice_not_found")
	ErrMissingID = errors.New("missing_invoice_id")
	ErrInvalidID = errors.New("invalid_invoice_id")
)

// DecodeInvoice parses a stored document into an Invoice, enforcing the
// fields the registry itself depends on. Unknown keys are ignored here but
// remain in the stored document.
func DecodeInvoice(data []byte) (Invoice, error) {
	var probe struct {
		ID            *string  `json:"id"`
		BatchName     *string  `json:"batch_name"`
		InvoiceDate   *string  `json:"invoice_date"`
		InvoiceNumber *string  `json:"invoice_number"`
		TemplateUsed  *string  `json:"template_used"`
		TotalValue    *float64 `json:"total_value"`
		Order         *int     `json:"order"`
		Selected      *bool    `json:"selected"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Invoice{}, err
	}

	missing := ""
	switch {
	case probe.ID == nil:
		missing = "id"
	case probe.BatchName == nil:
		missing = "batch_name"
	case probe.InvoiceDate == nil:
		missing = "invoice_date"
	case probe.InvoiceNumber == nil:
		missing = "invoice_number"
	case probe.TemplateUsed == nil:
		missing = "template_used"
	case probe.TotalValue == nil:
		missing = "total_value"
	case probe.Order == nil:
		missing = "order"
	}
	if missing != "" {
		return Invoice{}, fmt.Errorf("missing required field %q", missing)
	}

	var inv Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return Invoice{}, err
	}
	if probe.Selected == nil {
		inv.Selected = true
	}
	if inv.SystemValues == nil {
		inv.SystemValues = map[string]any{}
	}
	return inv, nil
}
