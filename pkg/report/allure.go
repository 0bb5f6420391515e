package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/logger"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// GenerateAllure writes Allure-compatible files for a report written by
// Write into <reportDir>/allure-results/, one result per expectation.
func GenerateAllure(reportDir string) error {
	suite, err := Read(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	allureDir := filepath.Join(reportDir, "allure-results")
	if err := os.MkdirAll(allureDir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	for _, res := range suite.Results {
		result := buildAllureResult(suite, res)
		for _, att := range res.Attachments {
			if att.Path != "" {
				copyFile(filepath.Join(reportDir, att.Path), filepath.Join(allureDir, filepath.Base(att.Path)))
			}
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result %d: %w", res.Index+1, err)
		}
		resultPath := filepath.Join(allureDir, result.UUID+"-result.json")
		if err := os.WriteFile(resultPath, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %d: %w", res.Index+1, err)
		}
	}

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	return writeAllureEnvironment(allureDir, suite)
}

// buildAllureResult builds an AllureResult from one assertion result.
func buildAllureResult(suite *core.SuiteResult, res core.AssertionResult) AllureResult {
	name := res.Description
	if name == "" {
		name = fmt.Sprintf("expectation %d", res.Index+1)
	}

	start := res.StartTime.UnixMilli()
	labels := []AllureLabel{
		{Name: "suite", Value: suite.Name},
		{Name: "framework", Value: "detox-expect"},
		{Name: "severity", Value: "normal"},
	}
	if res.Kind != "" {
		labels = append(labels, AllureLabel{Name: "tag", Value: res.Kind})
	}

	var details AllureStatusDetails
	if res.Message != "" {
		details.Message = res.Message
		details.Trace = res.Error
	}

	var attachments []AllureAttachment
	for _, att := range res.Attachments {
		if att.Path == "" {
			continue
		}
		attachments = append(attachments, AllureAttachment{
			Name:   att.Name,
			Source: filepath.Base(att.Path),
			Type:   att.ContentType,
		})
	}

	return AllureResult{
		UUID:          uuid.NewString(),
		HistoryID:     fnv32aHash(suite.Name + ":" + name),
		FullName:      suite.Name + ": " + name,
		Name:          name,
		Status:        mapAllureStatus(res.Status),
		Stage:         "finished",
		Start:         start,
		Stop:          start + res.Duration.Milliseconds(),
		Labels:        labels,
		StatusDetails: details,
		Attachments:   attachments,
	}
}

// copyFile copies a single file from src to dst. Missing sources are ignored.
func copyFile(src, dst string) {
	in, err := os.Open(src) //#nosec G304 -- paths come from the report
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(dst) //#nosec G304 -- paths come from the report
	if err != nil {
		logger.Warn("failed to create %s: %v", dst, err)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.Warn("failed to copy %s to %s: %v", src, dst, err)
	}
}

// mapAllureStatus maps a result status to an Allure status string.
func mapAllureStatus(s core.StepStatus) string {
	switch s {
	case core.StatusPassed:
		return "passed"
	case core.StatusFailed:
		return "failed"
	case core.StatusErrored:
		return "broken"
	case core.StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?s).*No elements found.*"},
		{Name: "Ambiguous Matcher", MatchedStatuses: []string{"failed"}, MessageRegex: "(?s).*Multiple elements found.*"},
		{Name: "Timeout", MatchedStatuses: []string{"failed"}, MessageRegex: "(?s)Timed out while waiting.*"},
		{Name: "Expectation Failed", MatchedStatuses: []string{"failed"}, MessageRegex: "(?s)Failed expectation.*"},
		{Name: "Unknown Class", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*Unknown class.*"},
		{Name: "Not A Scalar Control", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*not a scalar control.*"},
		{Name: "Invalid Invocation", MatchedStatuses: []string{"broken"}, MessageRegex: "(?s).*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}

	return nil
}

// writeAllureEnvironment writes environment.properties with run metadata.
func writeAllureEnvironment(allureDir string, suite *core.SuiteResult) error {
	var b strings.Builder
	b.WriteString("framework=detox-expect\n")
	if suite.Name != "" {
		b.WriteString(fmt.Sprintf("suite.name=%s\n", suite.Name))
	}
	if suite.RunID != "" {
		b.WriteString(fmt.Sprintf("run.id=%s\n", suite.RunID))
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}

	return nil
}
