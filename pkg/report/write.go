package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when writing a nil report.
var ErrEmpty = errors.New("report: no transfers")

// Format is a report serialisation format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s (supported: json, yaml)", s)
	}
}

// FormatForPath picks the format from a file extension; JSON unless the
// extension is .yaml or .yml.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r *QualityReport, format Format) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *QualityReport) error {
	if r == nil {
		return ErrEmpty
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteYAML writes r as YAML.
func WriteYAML(w io.Writer, r *QualityReport) error {
	if r == nil {
		return ErrEmpty
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes r to path, choosing the format by extension.
func WriteFile(path string, r *QualityReport) error {
	if r == nil {
		return ErrEmpty
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Write(f, r, FormatForPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
