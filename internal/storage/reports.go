package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/vampirenirmal/ritual/internal/core"
)

const (
	sessionsDir    = "sessions"
	reportFile     = "report.json"
	slugMaxLength  = 30
	shortIDLength  = 8
	sessionTimeFmt = "2006-01-02_1504"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns free text into a short lowercase directory component.
func Slug(text string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if len(s) > slugMaxLength {
		s = strings.TrimRight(s[:slugMaxLength], "-")
	}
	if s == "" {
		return "session"
	}
	return s
}

// SessionDir names the directory of a report:
// sessions/2025-07-16_1530_i-keep-starting-projects_82f06b15.
func SessionDir(r *core.SessionReport) string {
	id := r.ID
	if len(id) > shortIDLength {
		id = id[:shortIDLength]
	}
	name := fmt.Sprintf("%s_%s_%s", r.Timestamp.Format(sessionTimeFmt), Slug(r.UserText), id)
	return path.Join(sessionsDir, name)
}

// ReportStore saves session reports as JSON.
type ReportStore struct {
	storage Storage
	logger  *slog.Logger
}

func NewReportStore(s Storage) *ReportStore {
	return &ReportStore{
		storage: s,
		logger:  slog.Default().With("component", "report_store"),
	}
}

// Save writes the report and returns the key of its session directory.
func (rs *ReportStore) Save(ctx context.Context, r *core.SessionReport) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	dir := SessionDir(r)
	if err := rs.storage.Save(ctx, path.Join(dir, reportFile), data); err != nil {
		return "", fmt.Errorf("saving report %s: %w", r.ID, err)
	}
	rs.logger.Info("report saved", "session_id", r.ID, "dir", dir)
	return dir, nil
}

// Load reads the report saved in a session directory.
func (rs *ReportStore) Load(ctx context.Context, dir string) (*core.SessionReport, error) {
	data, err := rs.storage.Load(ctx, path.Join(dir, reportFile))
	if err != nil {
		return nil, fmt.Errorf("loading report: %w", err)
	}
	var r core.SessionReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling report: %w", err)
	}
	return &r, nil
}

// List returns the saved session directories, oldest first.
func (rs *ReportStore) List(ctx context.Context) ([]string, error) {
	files, err := rs.storage.List(ctx, path.Join(sessionsDir, "*", reportFile))
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	dirs := make([]string, 0, len(files))
	for _, f := range files {
		dirs = append(dirs, path.Dir(f))
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (rs *ReportStore) Delete(ctx context.Context, dir string) error {
	return rs.storage.Delete(ctx, dir)
}
