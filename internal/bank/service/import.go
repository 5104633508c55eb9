package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/novotnytom/ocrinvoices/internal/bank/domain"
	"go.uber.org/zap"
)

// statementEntry mirrors the repeated <banka> element of the statement
// export. Absent children decode to empty strings.
type statementEntry struct {
	ID           string `xml:"id"`
	Kod          string `xml:"kod"`
	TypPohybuK   string `xml:"typPohybuK"`
	DatVyst      string `xml:"datVyst"`
	Popis        string `xml:"popis"`
	SumZklCelkem string `xml:"sumZklCelkem"`
	Buc          string `xml:"buc"`
	SmerKod      string `xml:"smerKod"`
	Banka        string `xml:"banka"`
	Iban         string `xml:"iban"`
	TypDokl      string `xml:"typDokl"`
	VypisCisDokl string `xml:"vypisCisDokl"`
	CisSouhrnne  string `xml:"cisSouhrnne"`
	VarSym       string `xml:"varSym"`
}

// ImportXML walks the document for <banka> elements at any depth, dropping
// entries whose id is empty. Nothing is persisted; saving the batch is a
// separate explicit call.
func (s *Service) ImportXML(ctx context.Context, r io.Reader) ([]domain.Operation, error) {
	dec := xml.NewDecoder(r)

	operations := []domain.Operation{}
	dropped := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidXML, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "banka" {
			continue
		}

		var entry statementEntry
		if err := dec.DecodeElement(&entry, &start); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidXML, err)
		}
		if entry.ID == "" {
			dropped++
			continue
		}

		operations = append(operations, domain.Operation{
			ID:           entry.ID,
			Kod:          entry.Kod,
			TypPohybuK:   entry.TypPohybuK,
			DatVyst:      entry.DatVyst,
			Popis:        entry.Popis,
			SumZklCelkem: entry.SumZklCelkem,
			Buc:          entry.Buc,
			SmerKod:      entry.SmerKod,
			Banka:        entry.Banka,
			Iban:         entry.Iban,
			TypDokl:      entry.TypDokl,
			VypisCisDokl: entry.VypisCisDokl,
			CisSouhrnne:  entry.CisSouhrnne,
			VarSym:       entry.VarSym,
		})
	}

	s.log.Info("bank statement imported",
		zap.Int("operations", len(operations)),
		zap.Int("dropped", dropped))
	return operations, nil
}
