package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/novotnytom/ocrinvoices/internal/backup"
	bankservice "github.com/novotnytom/ocrinvoices/internal/bank/service"
	"github.com/novotnytom/ocrinvoices/internal/batch"
	"github.com/novotnytom/ocrinvoices/internal/config"
	"github.com/novotnytom/ocrinvoices/internal/converter"
	"github.com/novotnytom/ocrinvoices/internal/export"
	"github.com/novotnytom/ocrinvoices/internal/exporttemplate"
	"github.com/novotnytom/ocrinvoices/internal/ocr"
	overviewservice "github.com/novotnytom/ocrinvoices/internal/overview/service"
	profileservice "github.com/novotnytom/ocrinvoices/internal/profile/service"
	queueservice "github.com/novotnytom/ocrinvoices/internal/queue/service"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/zap"
)

type nopEngine struct{}

func (nopEngine) Recognize(ctx context.Context, img image.Image) (string, error) { return "", nil }

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	store := fsstore.New(t.TempDir())
	cfg := config.Config{
		DataDir:   store.Root(),
		TempDir:   t.TempDir(),
		BackupDir: t.TempDir(),
	}

	profiles := profileservice.NewService(profileservice.ServiceParam{Cfg: cfg, Log: log, Store: store})
	queues := queueservice.NewService(queueservice.ServiceParam{Log: log, Store: store})
	overview := overviewservice.NewService(overviewservice.ServiceParam{Log: log, Store: store})
	banks := bankservice.NewService(bankservice.ServiceParam{Log: log, Store: store})
	exports := export.NewService(export.ServiceParam{Log: log, Store: store, Overview: overview})
	templates := exporttemplate.NewService(exporttemplate.ServiceParam{Log: log, Store: store})
	converters := converter.NewService(converter.ServiceParam{Log: log})
	ocrSvc := ocr.NewService(ocr.ServiceParam{Log: log, Engine: nopEngine{}})
	batches := batch.NewService(batch.ServiceParam{Cfg: cfg, Log: log, Profiles: profiles})
	backups := backup.NewService(backup.ServiceParam{Cfg: cfg, Log: log})

	engine := gin.New()
	srv := NewServer(ServerParam{
		Cfg:          cfg,
		Log:          log,
		Engine:       engine,
		ProfileSvc:   profiles,
		QueueSvc:     queues,
		OverviewSvc:  overview,
		BankSvc:      banks,
		ExportSvc:    exports,
		TemplateSvc:  templates,
		ConverterSvc: converters,
		OCRSvc:       ocrSvc,
		BatchSvc:     batches,
		BackupSvc:    backups,
	})
	srv.RegisterRoutes()
	return srv, engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func saveProfileForm(t *testing.T, engine *gin.Engine, name, zones string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("name", name)
	mw.WriteField("zones", zones)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/profiles", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestProfileSaveAndGet(t *testing.T) {
	_, engine := newTestServer(t)

	w := saveProfileForm(t, engine, "faktura", `[{"id":1,"x":0,"y":0,"width":10,"height":10,"propertyName":"kod"}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Profile 'faktura' saved.") {
		t.Fatalf("unexpected save body: %s", w.Body)
	}

	w = doJSON(t, engine, http.MethodGet, "/profiles/faktura", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/profiles/faktura/preview.jpg") {
		t.Fatalf("missing image url: %s", w.Body)
	}
}

func TestProfileGetMissingIs404(t *testing.T) {
	_, engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodGet, "/profiles/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("unexpected error body: %s", w.Body)
	}
}

func TestProfileSaveInvalidZonesIs400(t *testing.T) {
	_, engine := newTestServer(t)

	w := saveProfileForm(t, engine, "p", "not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body)
	}
}

func TestOverviewAddBatchAndList(t *testing.T) {
	_, engine := newTestServer(t)

	payload := []map[string]any{
		{
			"id": "b", "batch_name": "may", "invoice_date": "2024-05-02",
			"invoice_number": "F-2", "template_used": "t", "total_value": 200.0, "order": 2,
		},
		{
			"id": "a", "batch_name": "may", "invoice_date": "2024-05-01",
			"invoice_number": "F-1", "template_used": "t", "total_value": 100.0, "order": 1,
		},
	}
	w := doJSON(t, engine, http.MethodPost, "/overview/add_batch", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("add_batch: expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"count":2`) {
		t.Fatalf("unexpected body: %s", w.Body)
	}

	w = doJSON(t, engine, http.MethodGet, "/overview/list_invoices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}

	var invoices []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &invoices); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(invoices) != 2 || invoices[0]["id"] != "a" || invoices[1]["id"] != "b" {
		t.Fatalf("expected order-sorted list, got %v", invoices)
	}
	if invoices[0]["selected"] != true {
		t.Fatalf("expected selected to default true, got %v", invoices[0])
	}
}

func TestOverviewUpdateMissingIs404(t *testing.T) {
	_, engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPatch, "/overview/update_invoice/ghost", map[string]any{"selected": false})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body)
	}
}

func TestBankMatchRoundTrip(t *testing.T) {
	_, engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/bank/save_batch", map[string]any{
		"name": "may",
		"operations": []map[string]any{
			{"id": "op1", "varSym": "123"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save_batch: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, engine, http.MethodPost, "/bank/save_match", map[string]any{
		"bank_id": "op1", "invoice_id": "inv-1", "batch_name": "may",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save_match: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, engine, http.MethodGet, "/bank/get_match_status?batch_name=may&bank_id=op1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"matched_invoice_id":"inv-1"`) {
		t.Fatalf("unexpected status body: %s", w.Body)
	}
}

func TestBankImportXML(t *testing.T) {
	_, engine := newTestServer(t)

	doc := `<winstrom><banka><id>1</id><varSym>10</varSym></banka><banka><id></id></banka></winstrom>`

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "statement.xml")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte(doc))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/bank/import_xml", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("unexpected body: %s", w.Body)
	}
}

func TestExportTemplateRoundTrip(t *testing.T) {
	_, engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/export-template/save", []map[string]any{
		{"name": "varSym", "active": true, "system": false, "label": "VS"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, engine, http.MethodGet, "/export-template/load", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("load: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"varSym"`) {
		t.Fatalf("unexpected load body: %s", w.Body)
	}
}

func TestExportFlexibeeEndpoint(t *testing.T) {
	_, engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodPost, "/overview/save_invoice", map[string]any{
		"id":     "a",
		"values": map[string]any{"kod": "F-1", "datVyst": "2024-05-01", "datSplat": ""},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save_invoice: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, engine, http.MethodPost, "/overview/export_flexibee", []string{"a"})
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("expected application/xml, got %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<winstrom version="1.0" source="OCRApp">`) {
		t.Fatalf("missing winstrom root: %s", body)
	}
	if !strings.Contains(body, "<datSplat>2024-05-01</datSplat>") {
		t.Fatalf("due date fallback missing: %s", body)
	}
}

func TestAuditLogsWithoutTrail(t *testing.T) {
	_, engine := newTestServer(t)

	w := doJSON(t, engine, http.MethodGet, "/audit/logs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"logs":[]`) {
		t.Fatalf("expected empty logs, got %s", w.Body)
	}
}
