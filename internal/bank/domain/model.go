package domain

import (
	"context"
	"errors"
	"io"
)

// Operation is one statement line of a bank batch. The named fields mirror
// the statement export schema; matching state lives in the last three.
//
// MatchedInvoiceID is the direct match written by SaveMatch and read by
// MatchStatus. InitialMatch/ConfirmMatch form the tentative-then-confirmed
// workflow. The two mechanisms are deliberately separate; see MatchStatus.
type Operation struct {
	ID           string `json:"id"`
	Kod          string `json:"kod"`
	TypPohybuK   string `json:"typPohybuK"`
	DatVyst      string `json:"datVyst"`
	Popis        string `json:"popis"`
	SumZklCelkem string `json:"sumZklCelkem"`
	Buc          string `json:"buc"`
	SmerKod      string `json:"smerKod"`
	Banka        string `json:"banka"`
	Iban         string `json:"iban"`
	TypDokl      string `json:"typDokl"`
	VypisCisDokl string `json:"vypisCisDokl"`
	CisSouhrnne  string `json:"cisSouhrnne"`
	VarSym       string `json:"varSym"`

	MatchedInvoiceID *string `json:"matched_invoice_id,omitempty"`
	InitialMatch     *string `json:"initial_match"`
	ConfirmMatch     bool    `json:"confirm_match"`
}

type Service interface {
	// SaveBatch overwrites the whole batch file.
	SaveBatch(ctx context.Context, name string, operations []Operation) error
	DeleteBatch(ctx context.Context, name string) error
	ListBatches(ctx context.Context) ([]string, error)
	LoadBatch(ctx context.Context, name string) ([]Operation, error)
	// ImportXML parses a statement document and returns its operations
	// without persisting them. Entries with an empty id are dropped.
	ImportXML(ctx context.Context, r io.Reader) ([]Operation, error)

	// SaveMatch sets the direct matched_invoice_id on one operation.
	SaveMatch(ctx context.Context, batch, bankID, invoiceID string) error
	// MatchStatus reads the direct matched_invoice_id only. The
	// initial/confirm workflow must load the full batch instead; this
	// asymmetry is an external contract.
	MatchStatus(ctx context.Context, batch, bankID string) (*string, error)
	// SaveInitialMatch bulk-sets tentative matches. Unknown bank ids are
	// ignored; the batch is persisted only if something changed. Returns the
	// number of operations updated.
	SaveInitialMatch(ctx context.Context, batch string, matches map[string]string) (int, error)
	// ConfirmMatch re-asserts the target and flips the confirmation flag
	// together.
	ConfirmMatch(ctx context.Context, batch, bankID, invoiceID string) error
	// DeleteMatch clears the tentative/confirmed state.
	DeleteMatch(ctx context.Context, batch, bankID string) error
}

var (
	ErrBatchNotFound     = errors.New("bank_batch_not_found")
	ErrOperationNotFound = errors.New("bank_operation_not_found")
	ErrInvalidName       = errors.New("invalid_batch_name")
	ErrInvalidXML        = errors.New("invalid_statement_xml")
)
