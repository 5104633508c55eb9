// Package converter holds the stateless settlement-file transcoders. Each
// converter maps uploaded bytes to a downloadable artifact and tolerates
// malformed rows by logging and skipping them.
package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Upload is one file submitted to a converter.
type Upload struct {
	Filename string
	Content  []byte
}

type Service interface {
	// Zasilkovna transcodes COD settlement CSVs (or zips of them) into the
	// PayPal-style statement format and returns a zip of the results.
	Zasilkovna(ctx context.Context, uploads []Upload) ([]byte, error)
}

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

type service struct {
	log *zap.Logger
}

func NewService(p ServiceParam) Service {
	return &service{log: p.Log.Named("converter.service")}
}

var zasilkovnaName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})__(.+)\.csv$`)

var statementHeader = []string{
	"Date", "Time", "TimeZone", "Name", "Type", "Status", "Currency", "Gross", "Fee", "Net",
	"From Email Address", "To Email Address", "Transaction ID", "CounterParty Status",
	"Address Status", "Item Title", "Item ID", "Shipping and Handling Amount", "Insurance Amount",
	"Sales Tax", "Option 1 Name", "Option 1 Value", "Option 2 Name", "Option 2 Value", "Auction Site",
	"Buyer ID", "Item URL", "Closing Date", "Escrow Id", "Reference Txn ID", "Invoice Number",
	"Custom Number", "Receipt ID", "Balance", "Address Line 1", "Address Line 2/District/Neighborhood",
	"Town/City", "State/Province/Region/County/Territory/Prefecture/Republic", "Zip/Postal Code",
	"Country", "Contact Phone Number",
}

func (s *service) Zasilkovna(ctx context.Context, uploads []Upload) ([]byte, error) {
	type converted struct {
		name string
		data []byte
	}
	var results []converted

	for _, up := range uploads {
		switch {
		case strings.HasSuffix(up.Filename, ".zip"):
			zr, err := zip.NewReader(bytes.NewReader(up.Content), int64(len(up.Content)))
			if err != nil {
				return nil, fmt.Errorf("read zip %s: %w", up.Filename, err)
			}
			for _, entry := range zr.File {
				if !strings.HasSuffix(entry.Name, ".csv") {
					continue
				}
				rc, err := entry.Open()
				if err != nil {
					return nil, err
				}
				content, err := io.ReadAll(rc)
				rc.Close()
				if err != nil {
					return nil, err
				}
				if name, data, ok := s.convertFile(entry.Name, content); ok {
					results = append(results, converted{name, data})
				}
			}
		case strings.HasSuffix(up.Filename, ".csv"):
			if name, data, ok := s.convertFile(up.Filename, up.Content); ok {
				results = append(results, converted{name, data})
			}
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, r := range results {
		w, err := zw.Create(r.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(r.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// convertFile transcodes one settlement CSV. Files with unexpected names or
// structure are skipped; so are individual rows that fail to parse.
func (s *service) convertFile(filename string, content []byte) (string, []byte, bool) {
	m := zasilkovnaName.FindStringSubmatch(filename)
	if m == nil {
		s.log.Warn("skipping settlement file with unexpected name", zap.String("file", filename))
		return "", nil, false
	}
	extractedDate := m[1]
	referenceID := m[2]

	text := strings.TrimPrefix(string(content), "\ufeff")
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	if err != nil || len(lines) == 0 || len(lines[0]) < 32 {
		s.log.Warn("skipping settlement file with invalid structure", zap.String("file", filename))
		return "", nil, false
	}

	var out bytes.Buffer
	writer := csv.NewWriter(&out)
	writer.Write(statementHeader)

	totalNet := 0.0
	lastName := ""
	for _, row := range lines[1:] {
		record, name, net, err := convertRow(row, referenceID)
		if err != nil {
			s.log.Debug("skipping settlement row", zap.Error(err))
			continue
		}
		lastName = name
		totalNet += net
		writer.Write(record)
	}

	if totalNet > 0 {
		writer.Write(payoutRow(extractedDate, referenceID, lastName, totalNet))
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		s.log.Warn("settlement write failed", zap.String("file", filename), zap.Error(err))
		return "", nil, false
	}

	outName := fmt.Sprintf("%s__%s.dobirky@zasilkovna.cz.csv", extractedDate, referenceID)
	return outName, out.Bytes(), true
}

func convertRow(row []string, referenceID string) (record []string, name string, net float64, err error) {
	if len(row) < 31 {
		return nil, "", 0, fmt.Errorf("short row: %d columns", len(row))
	}

	date := row[3]
	orderNumber := row[4]
	name = row[6]
	fee := row[10]
	currency := row[11]
	gross := row[12]
	status := row[16]
	country := row[30]

	parsedDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, "", 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	displayDate := parsedDate.Format("01/02/2006")

	grossVal, err := parseAmount(gross)
	if err != nil {
		return nil, "", 0, err
	}
	feeVal, err := parseAmount(fee)
	if err != nil {
		return nil, "", 0, err
	}

	feeMinus := round2(-feeVal)
	if grossVal > 0 {
		net = round2(grossVal - feeVal)
	} else {
		net = round2(-feeVal)
	}
	if grossVal <= 0 {
		grossVal = net
		feeMinus = 0
	}

	record = make([]string, len(statementHeader))
	record[0] = displayDate
	record[1] = "00:00"
	record[2] = "GMT+02:00"
	record[3] = name
	record[4] = "charge"
	record[5] = status
	record[6] = currency
	record[7] = formatDecimal(grossVal)
	record[8] = formatDecimal(feeMinus)
	record[9] = formatDecimal(net)
	record[12] = referenceID
	record[24] = name
	record[26] = displayDate
	record[29] = orderNumber
	record[39] = country
	return record, name, net, nil
}

// payoutRow closes the file with the aggregated carrier payout.
func payoutRow(extractedDate, referenceID, lastName string, totalNet float64) []string {
	displayDate := extractedDate
	if parsed, err := time.Parse("2006-01-02", extractedDate); err == nil {
		displayDate = parsed.Format("01/02/2006")
	}
	netPayout := round2(-totalNet)

	record := make([]string, len(statementHeader))
	record[0] = displayDate
	record[1] = "00:00"
	record[2] = "GMT+02:00"
	record[3] = "Zasilkovna.cz"
	record[4] = "payout"
	record[5] = "vyplaceno"
	record[6] = "CZK"
	record[7] = formatDecimal(netPayout)
	record[8] = "0"
	record[9] = formatDecimal(netPayout)
	record[12] = referenceID
	record[24] = lastName
	record[26] = displayDate
	record[29] = referenceID
	record[39] = "CZ"
	return record
}

func parseAmount(v string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(v, ",", "."), " ", "")
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", v, err)
	}
	return round2(parsed), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatDecimal renders an amount with a comma decimal separator, as the
// downstream statement import expects.
func formatDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

var Module = fx.Module("converter.service",
	fx.Provide(NewService),
)
