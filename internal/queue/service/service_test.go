package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/novotnytom/ocrinvoices/internal/queue/domain"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *fsstore.Store) {
	t.Helper()
	store := fsstore.New(t.TempDir())
	svc := NewService(ServiceParam{Log: zap.NewNop(), Store: store})
	return svc, store
}

func saveQueue(t *testing.T, svc domain.Service, name string) {
	t.Helper()
	err := svc.Save(context.Background(), domain.SaveRequest{
		Name:    name,
		Profile: "faktura",
		Values:  []byte(`{"pages":[]}`),
		Files: []domain.FileUpload{
			{Filename: "page1.jpg", Content: []byte("img")},
		},
	})
	if err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
}

func TestSaveAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	saveQueue(t, svc, "batch-2024")

	q, err := svc.Get(context.Background(), "batch-2024")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Name != "batch-2024" || q.Profile != "faktura" {
		t.Fatalf("unexpected queue: %+v", q)
	}
	if string(q.Pages) != `{"pages":[]}` {
		t.Fatalf("values blob not preserved: %s", q.Pages)
	}
	if q.SystemValues == nil || q.FieldMapping == nil {
		t.Fatalf("expected empty maps, got nil")
	}
}

func TestSavePreservesCreated(t *testing.T) {
	svc, store := newTestService(t)
	saveQueue(t, svc, "q")

	meta, err := fsstore.ReadJSON[domain.Metadata](store, "queues/q/meta.json")
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	firstCreated := meta.Created

	// Backdate so a second save visibly bumps Updated only.
	meta.Created = firstCreated.Add(-time.Hour)
	if err := fsstore.WriteJSON(store, "queues/q/meta.json", meta); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	saveQueue(t, svc, "q")

	after, err := fsstore.ReadJSON[domain.Metadata](store, "queues/q/meta.json")
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if !after.Created.Equal(firstCreated.Add(-time.Hour)) {
		t.Fatalf("created changed: %v", after.Created)
	}
	if !after.Updated.After(after.Created) {
		t.Fatalf("expected updated after created: %+v", after)
	}
}

func TestGetMissing(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCorrupted(t *testing.T) {
	svc, store := newTestService(t)
	saveQueue(t, svc, "q")

	if err := store.Remove("queues/q/values.json"); err != nil {
		t.Fatalf("remove values: %v", err)
	}

	_, err := svc.Get(context.Background(), "q")
	if !errors.Is(err, domain.ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
}

func TestListSkipsBrokenQueues(t *testing.T) {
	svc, store := newTestService(t)
	saveQueue(t, svc, "good")

	if err := store.WriteFile("queues/broken/page1.jpg", []byte("img")); err != nil {
		t.Fatalf("write: %v", err)
	}

	queues, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queues) != 1 || queues[0].Name != "good" {
		t.Fatalf("expected only good, got %+v", queues)
	}
}

func TestSaveRejectsBadUploadName(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Save(context.Background(), domain.SaveRequest{
		Name:    "q",
		Profile: "p",
		Values:  []byte("{}"),
		Files:   []domain.FileUpload{{Filename: "../escape.jpg", Content: []byte("x")}},
	})
	if !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
