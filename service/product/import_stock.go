package product

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
)

// StockImportResult holds counters and timing from a stock import run.
type StockImportResult struct {
	TotalRows int           `json:"total_rows"`
	Updated   int           `json:"updated"`
	Skipped   int           `json:"skipped"`
	Warnings  []string      `json:"warnings,omitempty"`
	TotalTime time.Duration `json:"total_time"`
}

// ImportStock reads a CSV with barcode and stock columns and sets stock
// levels for matching products. Unknown barcodes and bad rows are skipped
// with a warning.
func (s *Service) ImportStock(r io.Reader, batchSize int) (*StockImportResult, error) {
	start := time.Now()
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read CSV header")
	}
	barcodeCol, stockCol := -1, -1
	for i, h := range headers {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case "barcode":
			barcodeCol = i
		case "stock", "qty":
			stockCol = i
		}
	}
	if barcodeCol < 0 || stockCol < 0 {
		return nil, errors.New("CSV must contain 'barcode' and 'stock' columns")
	}

	res := &StockImportResult{}
	levels := make(map[string]int)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read CSV line %d", line)
		}
		res.TotalRows++
		if barcodeCol >= len(row) || stockCol >= len(row) {
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: missing columns", line))
			continue
		}
		barcode := strings.TrimSpace(row[barcodeCol])
		v := strings.TrimSpace(row[stockCol])
		qty, err := strconv.Atoi(v)
		switch {
		case barcode == "":
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: empty barcode", line))
		case err != nil:
			res.Warnings = append(res.Warnings, fmt.Sprintf("barcode=%s: invalid stock %q", barcode, v))
		case qty < 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("barcode=%s: negative stock %d", barcode, qty))
		default:
			levels[barcode] = qty
			continue
		}
		res.Skipped++
	}

	updated, missing, err := s.repo.SetStock(levels, batchSize)
	if err != nil {
		return nil, errors.Wrap(err, "update stock")
	}
	res.Updated = updated
	for _, b := range missing {
		res.Skipped++
		res.Warnings = append(res.Warnings, fmt.Sprintf("barcode=%s: no such product", b))
	}
	res.TotalTime = time.Since(start)
	return res, nil
}
