package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// parseCSV treats the first record as a header and renders every data row as
// its cells joined by " | ", one row per line.
func parseCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []string
	header := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		rows = append(rows, strings.Join(record, " | "))
	}

	return strings.Join(rows, "\n"), nil
}
