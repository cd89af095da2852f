package services

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gsenseless/tg-job-RAG/internal/models"
)

// exportDateLayout is the timestamp format Telegram uses in chat exports.
const exportDateLayout = "2006-01-02T15:04:05"

// ParseJobsExport reads a Telegram chat export and returns its messages as
// job records. Accepts either the full export object ({"messages": [...]})
// or a bare message array. Records without an id get a positional one;
// unparseable dates are dropped, not fatal.
func ParseJobsExport(r io.Reader) ([]models.JobRecord, error) {
	var payload any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse job vacancies JSON: %w", err)
	}

	var candidates []any
	switch v := payload.(type) {
	case map[string]any:
		if msgs, ok := v["messages"].([]any); ok {
			candidates = msgs
		}
	case []any:
		candidates = v
	}

	var records []models.JobRecord
	for _, item := range candidates {
		msg, ok := item.(map[string]any)
		if !ok || msg["type"] != "message" {
			continue
		}

		record := models.JobRecord{
			JobID:       exportID(msg["id"], len(records)),
			Description: flattenText(msg["text"]),
		}
		if raw, ok := msg["date"].(string); ok {
			if date, err := time.Parse(exportDateLayout, raw); err == nil {
				record.Date = &date
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func exportID(v any, position int) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	default:
		return strconv.Itoa(position)
	}
}

// flattenText concatenates the export's nested text representation: plain
// strings, lists of fragments, and entity objects carrying a "text" key.
func flattenText(v any) string {
	switch t := v.(type) {
	case string:
		t = strings.ReplaceAll(t, "\r\n", "\n")
		t = strings.ReplaceAll(t, "\r", "\n")
		return strings.ReplaceAll(t, "\n", " \n ")
	case []any:
		var b strings.Builder
		for _, part := range t {
			b.WriteString(flattenText(part))
		}
		return b.String()
	case map[string]any:
		if text, ok := t["text"]; ok {
			return flattenText(text)
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(flattenText(t[k]))
		}
		return b.String()
	default:
		return ""
	}
}
