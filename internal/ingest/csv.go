package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/pkg/logger"
)

// Required input columns. Column order in the file is free; the header row
// decides the mapping.
const (
	columnCustomerID   = "CustomerID"
	columnOrderID      = "OrderID"
	columnAmount       = "TransactionAmount"
	columnPurchaseDate = "PurchaseDate"
)

// dateLayouts are the accepted PurchaseDate formats, tried in order
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// CSVLoader reads transaction rows from a CSV file
type CSVLoader struct {
	logger *logger.Logger
}

// NewCSVLoader creates a new CSV loader
func NewCSVLoader(log *logger.Logger) *CSVLoader {
	return &CSVLoader{logger: log}
}

// LoadFile reads all transactions from the CSV file at path
func (l *CSVLoader) LoadFile(path string) ([]contracts.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := l.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"path": path,
		"rows": len(rows),
	}).Info("Loaded transactions from CSV")

	return rows, nil
}

// Read parses transactions from r. Schema or type violations surface as
// MalformedInputError with the offending row and column.
func (l *CSVLoader) Read(r io.Reader) ([]contracts.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &contracts.MalformedInputError{Reason: "input has no header row"}
	}
	if err != nil {
		return nil, &contracts.MalformedInputError{Reason: fmt.Sprintf("read header: %v", err)}
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []contracts.Transaction
	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &contracts.MalformedInputError{Row: rowNum, Reason: err.Error()}
		}

		tx, err := parseRecord(rowNum, record, index)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}

	return out, nil
}

// columnIndex maps the required columns onto header positions
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{columnCustomerID, columnOrderID, columnAmount, columnPurchaseDate} {
		if _, ok := index[required]; !ok {
			return nil, &contracts.MalformedInputError{Column: required, Reason: "required column is missing"}
		}
	}
	return index, nil
}

func parseRecord(rowNum int, record []string, index map[string]int) (contracts.Transaction, error) {
	field := func(col string) string {
		return strings.TrimSpace(record[index[col]])
	}

	amount, err := strconv.ParseFloat(field(columnAmount), 64)
	if err != nil {
		return contracts.Transaction{}, &contracts.MalformedInputError{
			Row:    rowNum,
			Column: columnAmount,
			Reason: fmt.Sprintf("cannot parse %q as amount", field(columnAmount)),
		}
	}

	date, err := parseDate(field(columnPurchaseDate))
	if err != nil {
		return contracts.Transaction{}, &contracts.MalformedInputError{
			Row:    rowNum,
			Column: columnPurchaseDate,
			Reason: fmt.Sprintf("cannot parse %q as date", field(columnPurchaseDate)),
		}
	}

	return contracts.Transaction{
		CustomerID:   field(columnCustomerID),
		OrderID:      field(columnOrderID),
		Amount:       amount,
		PurchaseDate: date,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", value)
}
