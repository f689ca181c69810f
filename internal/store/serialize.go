package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Serialize renders rows in the requested tabular format. Values are
// stringified; NULLs become empty strings.
func Serialize(columns []string, rows [][]any, format Format) (string, error) {
	switch format {
	case FormatCSV:
		return serializeCSV(columns, rows)
	case FormatJSON:
		return serializeJSON(columns, rows)
	}
	return "", fmt.Errorf("invalid output format %q", format)
}

func serializeCSV(columns []string, rows [][]any) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if len(columns) > 0 {
		if err := w.Write(columns); err != nil {
			return "", fmt.Errorf("write csv header: %w", err)
		}
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, v := range row {
			record[i] = stringifyValue(v)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return sb.String(), nil
}

func serializeJSON(columns []string, rows [][]any) (string, error) {
	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(columns))
		for i, col := range columns {
			record[col] = stringifyValue(row[i])
		}
		records = append(records, record)
	}
	out, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal json rows: %w", err)
	}
	return string(out), nil
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
