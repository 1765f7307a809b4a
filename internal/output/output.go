// Package output handles formatting output in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// AllFormats returns the accepted --output values.
func AllFormats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML}
}

// IsStructured reports whether the format is machine-readable.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatYAML
}

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
	docs   int // YAML documents written so far
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Format returns the writer's format.
func (w *Writer) Format() Format {
	return w.format
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		return w.writeYAML(v)
	default:
		// Text format - assume v implements fmt.Stringer or use default
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// Stream outputs one record of a sequence, such as a progress event.
// JSON records are written one per line; YAML records as separate
// documents. Text mode writes nothing since progress goes to the log.
func (w *Writer) Stream(v interface{}) error {
	switch w.format {
	case FormatJSON:
		return json.NewEncoder(w.w).Encode(v)
	case FormatYAML:
		return w.writeYAML(v)
	default:
		return nil
	}
}

// writeYAML writes v as a YAML document, separating it from any previous one.
func (w *Writer) writeYAML(v interface{}) error {
	if w.docs > 0 {
		if _, err := io.WriteString(w.w, "---\n"); err != nil {
			return err
		}
	}
	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.docs++
	return enc.Close()
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}
