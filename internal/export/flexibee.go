// Package export renders approved invoices into the accounting system's
// import XML. The document schema (winstrom/faktura-prijata) is a fixed
// external contract.
package export

import (
	"context"
	"encoding/base64"
	"errors"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	overviewdomain "github.com/novotnytom/ocrinvoices/internal/overview/domain"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"github.com/novotnytom/ocrinvoices/pkg/xmlbuild"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultContentType = "image/png"

type Service interface {
	// Flexibee renders the accounting export for the given registry ids, in
	// input order, silently skipping ids with no backing record.
	Flexibee(ctx context.Context, ids []string) ([]byte, error)
}

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Store    *fsstore.Store
	Overview overviewdomain.Service
}

type service struct {
	log      *zap.Logger
	store    *fsstore.Store
	overview overviewdomain.Service
}

func NewService(p ServiceParam) Service {
	return &service{
		log:      p.Log.Named("export.service"),
		store:    p.Store,
		overview: p.Overview,
	}
}

func (s *service) Flexibee(ctx context.Context, ids []string) ([]byte, error) {
	root := xmlbuild.New("winstrom").Attr("version", "1.0").Attr("source", "OCRApp")

	for _, id := range ids {
		raw, err := s.overview.LoadRaw(ctx, id)
		if err != nil {
			if errors.Is(err, overviewdomain.ErrNotFound) || errors.Is(err, overviewdomain.ErrInvalidID) {
				continue
			}
			return nil, err
		}

		record, err := objectMembers(raw)
		if err != nil {
			s.log.Warn("skipping undecodable record in export",
				zap.String("id", id), zap.Error(err))
			continue
		}

		if err := s.renderInvoice(root, record); err != nil {
			return nil, err
		}
	}

	return root.Document(), nil
}

func (s *service) renderInvoice(root *xmlbuild.Element, record []member) error {
	values := []member{}
	if raw := findMember(record, "values"); raw != nil {
		parsed, err := objectMembers(raw)
		if err == nil {
			values = parsed
		}
	}
	values = applyDueDateFallback(values)

	items := [][]member{}
	if raw := findMember(record, "invoiceItems"); raw != nil {
		if parsed, err := arrayMembers(raw); err == nil {
			items = parsed
		}
	}

	template := memberString(record, "template_used", "default")
	invoiceNumber := memberString(record, "invoice_number", "unknown")
	imageFilename := memberString(record, "imageFilename", "")
	batchName := memberString(record, "batch_name", "")

	faktura := root.Child("faktura-prijata")
	for _, m := range values {
		faktura.ChildText(m.Key, stringify(m.Raw))
	}

	// Invariant business flags for this export path.
	faktura.ChildText("ucetni", "true")
	faktura.ChildText("zuctovano", "true")
	faktura.ChildText("bezPolozek", "false")

	polozky := faktura.Child("polozkyFaktury")
	for _, item := range items {
		polozka := polozky.Child("faktura-prijata-polozka")
		for _, m := range item {
			polozka.ChildText(m.Key, stringify(m.Raw))
		}
	}

	if imageFilename != "" {
		s.attachImage(faktura, batchName, imageFilename, invoiceNumber, template)
	}
	return nil
}

// applyDueDateFallback substitutes the issue date when the due date is blank
// or the literal "0". Applied before emission so consumers never see the
// placeholder.
func applyDueDateFallback(values []member) []member {
	datSplat := strings.TrimSpace(stringify(findMember(values, "datSplat")))
	if datSplat != "" && datSplat != "0" {
		return values
	}
	datVyst := stringify(findMember(values, "datVyst"))
	if datVyst == "" {
		return values
	}
	return setMember(values, "datSplat", datVyst)
}

// attachImage base64-embeds the invoice's page image when it still exists in
// the batch's queue directory. Missing files are skipped, not an error.
func (s *service) attachImage(faktura *xmlbuild.Element, batchName, imageFilename, invoiceNumber, template string) {
	if !fsstore.ValidName(batchName) || !fsstore.ValidName(imageFilename) {
		return
	}

	imagePath := s.store.Path(path.Join("queues", batchName, imageFilename))
	content, err := os.ReadFile(imagePath)
	if err != nil {
		s.log.Debug("attachment image missing, skipping",
			zap.String("batch", batchName),
			zap.String("file", imageFilename))
		return
	}

	ext := strings.ToLower(filepath.Ext(imageFilename))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = defaultContentType
	}

	prilohy := faktura.Child("prilohy")
	priloha := prilohy.Child("priloha")
	priloha.ChildText("nazSoub", invoiceNumber+"_"+template+ext)
	priloha.ChildText("contentType", contentType)
	priloha.Child("content").
		Attr("encoding", "base64").
		Text = base64.StdEncoding.EncodeToString(content)
}

func memberString(record []member, key, fallback string) string {
	raw := findMember(record, key)
	if raw == nil {
		return fallback
	}
	v := stringify(raw)
	if v == "" {
		return fallback
	}
	return v
}
