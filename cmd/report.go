package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"nextdynamic/internal/application/dto"

	"gopkg.in/yaml.v3"
)

// Report formats.
const (
	reportText = "text"
	reportJSON = "json"
	reportYAML = "yaml"
)

func validateReportFormat(format string) error {
	switch format {
	case "", reportText, reportJSON, reportYAML:
		return nil
	default:
		return fmt.Errorf("unknown report format %q (want text, json or yaml)", format)
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	if format == reportYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport summarizes transform results.
func writeReport(w io.Writer, format string, results []*dto.FileResult) error {
	if format != reportText && format != "" {
		return writeStructured(w, format, results)
	}

	for _, result := range results {
		var err error
		switch {
		case result.Failed():
			_, err = fmt.Fprintf(w, "%s: error: %s\n", result.Path, result.Error)
		case result.Skipped:
			_, err = fmt.Fprintf(w, "%s: skipped (%s)\n", result.Path, result.SkipReason)
		default:
			status := "unchanged"
			if result.Changed {
				status = "changed"
			}
			_, err = fmt.Fprintf(w, "%s: %s, %d call sites\n", result.Path, status, len(result.CallSites))
			for _, site := range result.CallSites {
				if site.SkipReason != "" && err == nil {
					_, err = fmt.Fprintf(w, "  %d:%d skipped: %s\n", site.Line, site.Column, site.SkipReason)
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
