package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadEmailsCSV reads a CSV file and returns the values from the "email"
// column.
func ReadEmailsCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	emailIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), "email") {
			emailIdx = i
			break
		}
	}
	if emailIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", "email")
	}

	var emails []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if emailIdx >= len(rec) {
			return nil, fmt.Errorf("row has %d columns, want at least %d", len(rec), emailIdx+1)
		}
		emails = append(emails, rec[emailIdx])
	}
	return emails, nil
}

// WriteCSV writes rows with the stable header.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.Email,
			row.Status,
			row.QueryType,
			row.Response,
			row.Valid,
			row.Error,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
