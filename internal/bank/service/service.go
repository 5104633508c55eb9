package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/novotnytom/ocrinvoices/internal/bank/domain"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const batchesDir = "bank_batches"

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
		log:   p.Log.Named("bank.service"),
		store: p.Store,
	}
}

func batchPath(name string) string {
	return batchesDir + "/" + name + ".json"
}

func (s *Service) SaveBatch(ctx context.Context, name string, operations []domain.Operation) error {
	if !fsstore.ValidName(name) {
		return domain.ErrInvalidName
	}

	unlock := s.store.Lock("bank/" + name)
	defer unlock()

	if operations == nil {
		operations = []domain.Operation{}
	}
	if err := fsstore.WriteJSON(s.store, batchPath(name), operations); err != nil {
		return err
	}
	s.log.Info("bank batch saved", zap.String("batch", name), zap.Int("operations", len(operations)))
	return nil
}

func (s *Service) DeleteBatch(ctx context.Context, name string) error {
	if !fsstore.ValidName(name) {
		return domain.ErrInvalidName
	}

	unlock := s.store.Lock("bank/" + name)
	defer unlock()

	if err := s.store.Remove(batchPath(name)); err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrBatchNotFound, name)
		}
		return err
	}
	s.log.Info("bank batch deleted", zap.String("batch", name))
	return nil
}

func (s *Service) ListBatches(ctx context.Context) ([]string, error) {
	files, err := s.store.ListFiles(batchesDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if strings.HasSuffix(f, ".json") {
			names = append(names, strings.TrimSuffix(f, ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Service) LoadBatch(ctx context.Context, name string) ([]domain.Operation, error) {
	if !fsstore.ValidName(name) {
		return nil, domain.ErrInvalidName
	}
	ops, err := fsstore.ReadJSON[[]domain.Operation](s.store, batchPath(name))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, name)
		}
		return nil, err
	}
	return ops, nil
}

// mutateBatch runs fn over the loaded operations under the batch lock and
// persists the collection when fn reports a change.
func (s *Service) mutateBatch(name string, fn func(ops []domain.Operation) (bool, error)) error {
	if !fsstore.ValidName(name) {
		return domain.ErrInvalidName
	}

	unlock := s.store.Lock("bank/" + name)
	defer unlock()

	ops, err := fsstore.ReadJSON[[]domain.Operation](s.store, batchPath(name))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrBatchNotFound, name)
		}
		return err
	}

	changed, err := fn(ops)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return fsstore.WriteJSON(s.store, batchPath(name), ops)
}

func (s *Service) SaveMatch(ctx context.Context, batch, bankID, invoiceID string) error {
	err := s.mutateBatch(batch, func(ops []domain.Operation) (bool, error) {
		for i := range ops {
			if ops[i].ID == bankID {
				ops[i].MatchedInvoiceID = &invoiceID
				return true, nil
			}
		}
		return false, fmt.Errorf("%w: %s", domain.ErrOperationNotFound, bankID)
	})
	if err == nil {
		s.log.Info("bank match saved",
			zap.String("batch", batch),
			zap.String("bank_id", bankID),
			zap.String("invoice_id", invoiceID))
	}
	return err
}

func (s *Service) MatchStatus(ctx context.Context, batch, bankID string) (*string, error) {
	ops, err := s.LoadBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if op.ID == bankID {
			return op.MatchedInvoiceID, nil
		}
	}
	return nil, nil
}

func (s *Service) SaveInitialMatch(ctx context.Context, batch string, matches map[string]string) (int, error) {
	updated := 0
	err := s.mutateBatch(batch, func(ops []domain.Operation) (bool, error) {
		for i := range ops {
			if invoiceID, ok := matches[ops[i].ID]; ok {
				id := invoiceID
				ops[i].InitialMatch = &id
				updated++
			}
		}
		return updated > 0, nil
	})
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.log.Info("initial matches saved",
			zap.String("batch", batch),
			zap.Int("updated", updated))
	}
	return updated, nil
}

func (s *Service) ConfirmMatch(ctx context.Context, batch, bankID, invoiceID string) error {
	err := s.mutateBatch(batch, func(ops []domain.Operation) (bool, error) {
		for i := range ops {
			if ops[i].ID == bankID {
				// Confirmation always re-asserts the target, it never just
				// flips the flag on whatever was there.
				ops[i].InitialMatch = &invoiceID
				ops[i].ConfirmMatch = true
				return true, nil
			}
		}
		return false, fmt.Errorf("%w: %s", domain.ErrOperationNotFound, bankID)
	})
	if err == nil {
		s.log.Info("bank match confirmed",
			zap.String("batch", batch),
			zap.String("bank_id", bankID),
			zap.String("invoice_id", invoiceID))
	}
	return err
}

func (s *Service) DeleteMatch(ctx context.Context, batch, bankID string) error {
	err := s.mutateBatch(batch, func(ops []domain.Operation) (bool, error) {
		for i := range ops {
			if ops[i].ID == bankID {
				ops[i].InitialMatch = nil
				ops[i].ConfirmMatch = false
				return true, nil
			}
		}
		return false, fmt.Errorf("%w: %s", domain.ErrOperationNotFound, bankID)
	})
	if err == nil {
		s.log.Info("bank match cleared",
			zap.String("batch", batch),
			zap.String("bank_id", bankID))
	}
	return err
}
