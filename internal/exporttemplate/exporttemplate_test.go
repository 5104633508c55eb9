package exporttemplate

import (
	"context"
	"testing"

	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	return NewService(ServiceParam{
		Log:   zap.NewNop(),
		Store: fsstore.New(t.TempDir()),
	})
}

func TestLoadWithoutTemplate(t *testing.T) {
	svc := newTestService(t)

	fields, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fields == nil || len(fields) != 0 {
		t.Fatalf("expected empty list, got %v", fields)
	}
}

func TestSaveAndLoad(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info := "variable symbol"
	err := svc.Save(ctx, []Field{
		{Name: "varSym", Active: true, Label: "VS", Info: &info},
		{Name: "datVyst", Active: false, System: true, Label: "Issued"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	fields, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Name != "varSym" || !fields[0].Active || fields[0].Info == nil {
		t.Fatalf("unexpected field: %+v", fields[0])
	}
	if !fields[1].System {
		t.Fatalf("expected system field: %+v", fields[1])
	}
}

func TestSaveOverwrites(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Save(ctx, []Field{{Name: "a", Label: "A"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Save(ctx, []Field{{Name: "b", Label: "B"}}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	fields, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "b" {
		t.Fatalf("expected overwrite, got %+v", fields)
	}
}
