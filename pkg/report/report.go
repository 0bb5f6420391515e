// Package report writes suite results to disk: report.json with its
// attachments, and an optional Allure results directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xflotus/Detox/pkg/core"
)

// ReportFile is the name of the suite result file inside a report directory.
const ReportFile = "report.json"

// Write stores suite in outputDir. Attachment bodies are written under
// assets/ and their Path fields are set relative to outputDir.
func Write(outputDir string, suite *core.SuiteResult) error {
	if err := ensureDir(outputDir); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	for i := range suite.Results {
		res := &suite.Results[i]
		for j := range res.Attachments {
			att := &res.Attachments[j]
			if att.Body == nil {
				continue
			}
			rel := filepath.Join("assets", fmt.Sprintf("%03d-%s%s", res.Index+1, att.Name, extensionFor(att.ContentType)))
			if err := ensureDir(filepath.Join(outputDir, "assets")); err != nil {
				return fmt.Errorf("create assets dir: %w", err)
			}
			if err := os.WriteFile(filepath.Join(outputDir, rel), att.Body, 0o644); err != nil {
				return fmt.Errorf("write attachment %s: %w", rel, err)
			}
			att.Path = rel
		}
	}

	if err := atomicWriteJSON(filepath.Join(outputDir, ReportFile), suite); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Read loads a suite result written by Write. Attachment bodies are not loaded.
func Read(outputDir string) (*core.SuiteResult, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, ReportFile)) //#nosec G304 -- report dir is user-provided
	if err != nil {
		return nil, err
	}
	var suite core.SuiteResult
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ReportFile, err)
	}
	return &suite, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case core.ContentTypeJSON:
		return ".json"
	case core.ContentTypePNG:
		return ".png"
	default:
		return ".txt"
	}
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// atomicWriteJSON writes v to a temp file and renames it over path.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
