package logx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

const timestampFormat = "2006-01-02 15:04:05"

// ConsoleFormatter renders human-readable single-line output
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// Format implements Formatter
func (f *ConsoleFormatter) Format(rec *record) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s | %-5s | %s",
		rec.Timestamp.Format(timestampFormat),
		rec.Level.String(),
		rec.Message,
	)

	if len(rec.Fields) > 0 {
		keys := make([]string, 0, len(rec.Fields))
		for k := range rec.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%v", k, rec.Fields[k])
		}
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONFormatter renders machine-readable JSON lines
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter
func (f *JSONFormatter) Format(rec *record) ([]byte, error) {
	payload := make(map[string]interface{}, len(rec.Fields)+3)
	for k, v := range rec.Fields {
		payload[k] = v
	}
	payload["timestamp"] = rec.Timestamp.Format(timestampFormat)
	payload["level"] = rec.Level.String()
	payload["message"] = rec.Message

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
