package export

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	overviewservice "github.com/novotnytom/ocrinvoices/internal/overview/service"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (Service, *fsstore.Store) {
	t.Helper()
	store := fsstore.New(t.TempDir())
	overview := overviewservice.NewService(overviewservice.ServiceParam{
		Log:   zap.NewNop(),
		Store: store,
	})
	svc := NewService(ServiceParam{
		Log:      zap.NewNop(),
		Store:    store,
		Overview: overview,
	})
	return svc, store
}

func writeRecord(t *testing.T, store *fsstore.Store, id, doc string) {
	t.Helper()
	if err := store.WriteFile("overview/"+id+".json", []byte(doc)); err != nil {
		t.Fatalf("write record: %v", err)
	}
}

func TestFlexibeeEmitsValuesInOrder(t *testing.T) {
	svc, store := newTestService(t)

	writeRecord(t, store, "a", `{
  "id": "a",
  "invoice_number": "F-1",
  "template_used": "faktura",
  "values": {"zeta": "last", "alpha": "first", "datVyst": "2024-05-01", "datSplat": "2024-05-14"}
}`)

	doc, err := svc.Flexibee(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	out := string(doc)
	if !strings.Contains(out, `<winstrom version="1.0" source="OCRApp">`) {
		t.Fatalf("missing winstrom root: %s", out)
	}
	zeta := strings.Index(out, "<zeta>")
	alpha := strings.Index(out, "<alpha>")
	if zeta < 0 || alpha < 0 || zeta > alpha {
		t.Fatalf("expected document order zeta before alpha: %s", out)
	}
	if !strings.Contains(out, "<datSplat>2024-05-14</datSplat>") {
		t.Fatalf("due date altered despite being set: %s", out)
	}
}

func TestFlexibeeDueDateFallback(t *testing.T) {
	svc, store := newTestService(t)

	writeRecord(t, store, "blank", `{"id":"blank","values":{"datVyst":"2024-05-01","datSplat":""}}`)
	writeRecord(t, store, "zero", `{"id":"zero","values":{"datVyst":"2024-06-01","datSplat":"0"}}`)

	doc, err := svc.Flexibee(context.Background(), []string{"blank", "zero"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	out := string(doc)
	if !strings.Contains(out, "<datSplat>2024-05-01</datSplat>") {
		t.Fatalf("blank due date not replaced: %s", out)
	}
	if !strings.Contains(out, "<datSplat>2024-06-01</datSplat>") {
		t.Fatalf("zero due date not replaced: %s", out)
	}
}

func TestFlexibeeFixedFlagsAndItems(t *testing.T) {
	svc, store := newTestService(t)

	writeRecord(t, store, "a", `{
  "id": "a",
  "values": {"kod": "F-1"},
  "invoiceItems": [{"nazev": "Zbozi", "cena": 99.5}]
}`)

	doc, err := svc.Flexibee(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	out := string(doc)
	for _, want := range []string{
		"<ucetni>true</ucetni>",
		"<zuctovano>true</zuctovano>",
		"<bezPolozek>false</bezPolozek>",
		"<faktura-prijata-polozka>",
		"<nazev>Zbozi</nazev>",
		"<cena>99.5</cena>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestFlexibeeSkipsMissingIDs(t *testing.T) {
	svc, store := newTestService(t)

	writeRecord(t, store, "a", `{"id":"a","values":{}}`)

	doc, err := svc.Flexibee(context.Background(), []string{"ghost", "a"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Count(string(doc), "<faktura-prijata>") != 1 {
		t.Fatalf("expected exactly one invoice: %s", doc)
	}
}

func TestFlexibeeAttachment(t *testing.T) {
	svc, store := newTestService(t)

	imageBytes := []byte("jpeg-bytes")
	if err := store.WriteFile("queues/may/page1.jpg", imageBytes); err != nil {
		t.Fatalf("write image: %v", err)
	}

	writeRecord(t, store, "a", `{
  "id": "a",
  "batch_name": "may",
  "invoice_number": "F-7",
  "template_used": "faktura",
  "imageFilename": "page1.jpg",
  "values": {}
}`)

	doc, err := svc.Flexibee(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	out := string(doc)
	if !strings.Contains(out, "<nazSoub>F-7_faktura.jpg</nazSoub>") {
		t.Fatalf("unexpected attachment name: %s", out)
	}
	if !strings.Contains(out, "image/jpeg") {
		t.Fatalf("expected jpeg content type: %s", out)
	}
	if !strings.Contains(out, base64.StdEncoding.EncodeToString(imageBytes)) {
		t.Fatalf("missing base64 content: %s", out)
	}
}

func TestFlexibeeMissingAttachmentSkipped(t *testing.T) {
	svc, store := newTestService(t)

	writeRecord(t, store, "a", `{
  "id": "a",
  "batch_name": "may",
  "imageFilename": "gone.jpg",
  "values": {}
}`)

	doc, err := svc.Flexibee(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(string(doc), "<prilohy>") {
		t.Fatalf("expected no attachment element: %s", doc)
	}
}

func TestObjectMembersKeepOrder(t *testing.T) {
	members, err := objectMembers([]byte(`{"c":1,"a":"x","b":null}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(members) != 3 || members[0].Key != "c" || members[1].Key != "a" || members[2].Key != "b" {
		t.Fatalf("unexpected order: %+v", members)
	}
	if stringify(members[0].Raw) != "1" {
		t.Fatalf("expected number spelling, got %q", stringify(members[0].Raw))
	}
	if stringify(members[1].Raw) != "x" {
		t.Fatalf("expected unquoted string, got %q", stringify(members[1].Raw))
	}
	if stringify(members[2].Raw) != "" {
		t.Fatalf("expected empty text for null, got %q", stringify(members[2].Raw))
	}
}
