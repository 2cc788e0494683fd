package recovery

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oukeidos/novtl/internal/files"
)

// Report records the outcome of one novel run. A report with failed chapters
// is the input for a repair run.
type Report struct {
	ReportVersion  int              `json:"report_version"`
	RunID          string           `json:"run_id"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	NovelID        string           `json:"novel_id"`
	InputPath      string           `json:"input_path"`
	OutputDir      string           `json:"output_dir"`
	InputHash      string           `json:"input_hash"`
	Provider       string           `json:"provider"`
	Model          string           `json:"model"`
	ExtractModel   string           `json:"extract_model"`
	SourceLang     string           `json:"source_lang"`
	TargetLang     string           `json:"target_lang"`
	GlossarySize   int              `json:"glossary_size"`
	GlossaryLoaded bool             `json:"glossary_loaded"`
	StoryID        int64            `json:"story_id,omitempty"`
	Chapters       []ChapterOutcome `json:"chapters"`
	FailedChapters []int            `json:"failed_chapters"`
	TotalChapters  int              `json:"total_chapters"`
	Status         string           `json:"status"` // "Success", "Partial Success", "Failure"
	StatusReason   string           `json:"status_reason,omitempty"`
}

// ChapterOutcome is the per-chapter line of a report.
type ChapterOutcome struct {
	Number    int    `json:"number"`
	Method    string `json:"method"`
	Error     string `json:"error,omitempty"`
	Output    string `json:"output,omitempty"`
	Published bool   `json:"published,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

const CurrentReportVersion = 1

const (
	StatusSuccess        = "Success"
	StatusPartialSuccess = "Partial Success"
	StatusFailure        = "Failure"

	ReasonCanceled = "canceled"
)

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	if u, err := uuid.NewV7(); err == nil {
		return u.String()
	}
	return uuid.NewString()
}

// Validate checks that the report is consistent and safe to repair from.
func (r *Report) Validate() error {
	if r.ReportVersion == 0 {
		r.ReportVersion = CurrentReportVersion
	}
	if r.ReportVersion != CurrentReportVersion {
		return fmt.Errorf("unsupported report_version: %d", r.ReportVersion)
	}
	if r.NovelID == "" {
		return fmt.Errorf("novel_id is empty")
	}
	if r.InputPath == "" {
		return fmt.Errorf("input_path is empty")
	}
	if filepath.IsAbs(r.InputPath) {
		return fmt.Errorf("input_path must be relative, not absolute: %s", r.InputPath)
	}
	if r.OutputDir == "" {
		return fmt.Errorf("output_dir is empty")
	}
	if filepath.IsAbs(r.OutputDir) {
		return fmt.Errorf("output_dir must be relative, not absolute: %s", r.OutputDir)
	}
	if strings.HasPrefix(filepath.Clean(r.OutputDir), "..") {
		return fmt.Errorf("output_dir cannot traverse parent directories: %s", r.OutputDir)
	}
	if !strings.HasPrefix(r.InputHash, "sha256:") {
		return fmt.Errorf("invalid input_hash: %q", r.InputHash)
	}
	if r.Model == "" {
		return fmt.Errorf("model name is empty")
	}
	if r.TotalChapters <= 0 {
		return fmt.Errorf("invalid total_chapters: %d", r.TotalChapters)
	}
	if len(r.FailedChapters) == 0 {
		return fmt.Errorf("failed_chapters list is empty")
	}
	for _, n := range r.FailedChapters {
		if n <= 0 {
			return fmt.Errorf("invalid failed chapter number: %d", n)
		}
	}
	if r.Status == "" {
		return fmt.Errorf("run status is empty")
	}
	if r.StatusReason != "" && r.StatusReason != ReasonCanceled {
		return fmt.Errorf("invalid status_reason: %s", r.StatusReason)
	}
	return nil
}

// Finalize sorts the chapter lines, derives the failed list and sets the status.
func (r *Report) Finalize() {
	slices.SortFunc(r.Chapters, func(a, b ChapterOutcome) int { return a.Number - b.Number })
	r.FailedChapters = r.FailedChapters[:0]
	attempted := 0
	for _, ch := range r.Chapters {
		if ch.Skipped {
			continue
		}
		attempted++
		if ch.Error != "" {
			r.FailedChapters = append(r.FailedChapters, ch.Number)
		}
	}
	r.Status = CalculateStatus(len(r.FailedChapters), attempted)
}

// SaveReport writes the report as indented JSON. It never overwrites an
// existing file.
func SaveReport(path string, r *Report) error {
	if r.ReportVersion == 0 {
		r.ReportVersion = CurrentReportVersion
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return files.AtomicWriteExclusive(path, data, 0600)
}

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.ReportVersion == 0 {
		r.ReportVersion = CurrentReportVersion
	}
	return &r, nil
}

// GenerateReportPath picks an unused report filename inside dir for novelID:
// <novel>_report.json, then the numbered and UUID fallbacks of files.SafePath.
func GenerateReportPath(dir, novelID string) string {
	primary := filepath.Join(dir, novelID+"_report.json")
	path, _, err := files.SafePath(primary)
	if err != nil {
		return filepath.Join(dir, fmt.Sprintf("%s_report_%s.json", novelID, NewRunID()))
	}
	return path
}

// HashFile returns a SHA-256 hash of the given file contents.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// HashFileHex returns a sha256-prefixed hex string of the file contents.
func HashFileHex(path string) (string, error) {
	sum, err := HashFile(path)
	if err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// CalculateStatus determines the run status based on failed and attempted chapters.
func CalculateStatus(failedCount, totalCount int) string {
	if failedCount == 0 {
		return StatusSuccess
	}
	if failedCount < totalCount {
		return StatusPartialSuccess
	}
	return StatusFailure
}

// ResolvePath resolves a report-relative path based on the report location.
func ResolvePath(reportPath, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(reportPath), target)
}

// ToRelativeOutputDir converts an output directory to a path relative to the
// report. The directory must contain the report.
func ToRelativeOutputDir(reportPath, outputDir string) (string, error) {
	rel, err := toRelativePath(reportPath, outputDir)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("output directory is not within report directory")
	}
	return rel, nil
}

// ToRelativeInputPath converts an input path to a path relative to the report.
func ToRelativeInputPath(reportPath, inputPath string) (string, error) {
	return toRelativePath(reportPath, inputPath)
}

func toRelativePath(reportPath, targetPath string) (string, error) {
	absDir, err := filepath.Abs(filepath.Dir(reportPath))
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absDir, absTarget)
}
