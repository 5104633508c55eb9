package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/novotnytom/ocrinvoices/internal/overview/domain"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"github.com/novotnytom/ocrinvoices/pkg/xmlbuild"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const overviewDir = "overview"

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Store *fsstore.Store
}

type Service struct {
	log   *zap.Logger
	store *fsstore.Store
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("overview.service"),
		store: p.Store,
	}
}

func recordPath(id string) string {
	return overviewDir + "/" + id + ".json"
}

func validID(id string) bool {
	return fsstore.ValidName(id) && !strings.Contains(id, ".")
}

func (s *Service) AddBatch(ctx context.Context, invoices []domain.Invoice) (int, error) {
	for _, inv := range invoices {
		if !validID(inv.ID) {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidID, inv.ID)
		}
	}
	for _, inv := range invoices {
		unlock := s.store.Lock("overview/" + inv.ID)
		err := fsstore.WriteJSON(s.store, recordPath(inv.ID), inv)
		unlock()
		if err != nil {
			return 0, err
		}
	}
	s.log.Info("overview batch added", zap.Int("count", len(invoices)))
	return len(invoices), nil
}

func (s *Service) SaveInvoice(ctx context.Context, record map[string]any) error {
	id, _ := record["id"].(string)
	if id == "" {
		return domain.ErrMissingID
	}
	if !validID(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}

	unlock := s.store.Lock("overview/" + id)
	defer unlock()

	return fsstore.WriteJSON(s.store, recordPath(id), record)
}

func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) error {
	if !validID(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}

	unlock := s.store.Lock("overview/" + id)
	defer unlock()

	record, err := fsstore.ReadJSON[map[string]any](s.store, recordPath(id))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return err
	}

	for k, v := range fields {
		record[k] = v
	}

	return fsstore.WriteJSON(s.store, recordPath(id), record)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}

	unlock := s.store.Lock("overview/" + id)
	defer unlock()

	if err := s.store.Remove(recordPath(id)); err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return err
	}
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	files, err := s.store.ListFiles(overviewDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".json") {
			continue
		}
		if err := s.store.Remove(overviewDir + "/" + f); err != nil && !errors.Is(err, fsstore.ErrNotExist) {
			return err
		}
	}
	s.log.Info("overview cleared")
	return nil
}

// List loads every record, skipping those that fail to decode so one corrupt
// file cannot hide the rest. Skips are logged and surfaced on the result.
func (s *Service) List(ctx context.Context) (domain.ListResult, error) {
	files, err := s.store.ListFiles(overviewDir)
	if err != nil {
		return domain.ListResult{}, err
	}

	result := domain.ListResult{Invoices: []domain.Invoice{}}
	for _, f := range files {
		if !strings.HasSuffix(f, ".json") {
			continue
		}
		data, err := s.store.ReadFile(overviewDir + "/" + f)
		if err != nil {
			result.Skipped = append(result.Skipped, domain.SkippedRecord{File: f, Reason: err.Error()})
			continue
		}
		inv, err := domain.DecodeInvoice(data)
		if err != nil {
			s.log.Warn("skipping unreadable overview record",
				zap.String("file", f), zap.Error(err))
			result.Skipped = append(result.Skipped, domain.SkippedRecord{File: f, Reason: err.Error()})
			continue
		}
		result.Invoices = append(result.Invoices, inv)
	}

	sort.SliceStable(result.Invoices, func(i, j int) bool {
		return result.Invoices[i].Order < result.Invoices[j].Order
	})
	return result, nil
}

func (s *Service) LoadRaw(ctx context.Context, id string) ([]byte, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	data, err := s.store.ReadFile(recordPath(id))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return data, nil
}

// ExportSelected projects the fixed field subset per id, in input order. Ids
// without a backing record are skipped silently.
func (s *Service) ExportSelected(ctx context.Context, ids []string) ([]byte, error) {
	root := xmlbuild.New("Invoices")

	for _, id := range ids {
		raw, err := s.LoadRaw(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
				continue
			}
			return nil, err
		}

		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil {
			s.log.Warn("skipping undecodable record in export",
				zap.String("id", id), zap.Error(err))
			continue
		}

		inv := root.Child("Invoice")
		inv.ChildText("InvoiceNumber", stringField(record, "invoice_number"))
		inv.ChildText("InvoiceDate", stringField(record, "invoice_date"))
		inv.ChildText("BatchName", stringField(record, "batch_name"))
		inv.ChildText("TemplateUsed", stringField(record, "template_used"))
		inv.ChildText("TotalValue", numberField(record, "total_value"))
		inv.ChildText("AccountingInfo", stringField(record, "accounting_info"))
		inv.ChildText("CompanyId", stringField(record, "company_id"))
	}

	return root.Document(), nil
}

func stringField(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func numberField(record map[string]any, key string) string {
	switch v := record[key].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return ""
	}
}
