package google

import (
	"errors"
	"fmt"
	"strings"

	"insights/internal/core"
	"insights/internal/ingest"
)

// parseTransactions converts a values matrix whose first row is the export
// header. Rows with no values are skipped.
func parseTransactions(values [][]any) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, errors.New("sheet is empty")
	}
	header, err := ingest.NewHeader(toStrings(values[0]))
	if err != nil {
		return nil, err
	}

	out := make([]core.Transaction, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		tx, err := ingest.ParseRecord(header, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
