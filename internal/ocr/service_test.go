package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	profiledomain "github.com/novotnytom/ocrinvoices/internal/profile/domain"
	"go.uber.org/zap"
)

type fakeEngine struct {
	texts []string
	errs  []error
	calls int
}

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	text := ""
	if i < len(f.texts) {
		text = f.texts[i]
	}
	return text, err
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(200, 100, color.White)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newTestService(engine Engine) Service {
	return NewService(ServiceParam{Log: zap.NewNop(), Engine: engine})
}

func TestTestRecognizesZones(t *testing.T) {
	engine := &fakeEngine{texts: []string{"F-2024-001", "1500"}}
	svc := newTestService(engine)

	zones := []profiledomain.Zone{
		{ID: 1, X: 0, Y: 0, Width: 50, Height: 20, PropertyName: "invoice_number"},
		{ID: 2, X: 50, Y: 0, Width: 50, Height: 20, PropertyName: "total"},
	}

	results, err := svc.Test(context.Background(), testImage(t), zones)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "F-2024-001" || !results[0].Success {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if results[1].PropertyName != "total" {
		t.Fatalf("unexpected property: %+v", results[1])
	}
	if engine.calls != 2 {
		t.Fatalf("expected 2 engine calls, got %d", engine.calls)
	}
}

func TestTestEngineFailureDegrades(t *testing.T) {
	engine := &fakeEngine{errs: []error{fmt.Errorf("boom")}, texts: []string{"", "ok"}}
	svc := newTestService(engine)

	zones := []profiledomain.Zone{
		{ID: 1, PropertyName: "broken", Width: 10, Height: 10},
		{ID: 2, PropertyName: "fine", Width: 10, Height: 10},
	}

	results, err := svc.Test(context.Background(), testImage(t), zones)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if results[0].Text != NaN || results[0].Success {
		t.Fatalf("expected degraded failure, got %+v", results[0])
	}
	if results[1].Text != "ok" || !results[1].Success {
		t.Fatalf("expected second zone ok, got %+v", results[1])
	}
}

func TestTestEmptyRecognitionIsNaNButSuccessful(t *testing.T) {
	svc := newTestService(&fakeEngine{texts: []string{""}})

	zones := []profiledomain.Zone{{ID: 1, PropertyName: "p", Width: 10, Height: 10}}
	results, err := svc.Test(context.Background(), testImage(t), zones)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if results[0].Text != NaN || !results[0].Success {
		t.Fatalf("expected NaN success, got %+v", results[0])
	}
}

func TestTestInvalidImage(t *testing.T) {
	svc := newTestService(&fakeEngine{})

	_, err := svc.Test(context.Background(), []byte("not an image"), nil)
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}
