// Package store keeps the host's application state in a single local JSON
// document. It is the persistence collaborator the AI core reads records
// from and writes results to; the core itself never persists anything.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jingxin-guardian/internal/domain"
	"go.uber.org/zap"
)

// AppState is the persisted document.
type AppState struct {
	SystemConfig    *domain.AccessConfig              `json:"system_config,omitempty"`
	Personnel       map[string]domain.PersonnelRecord `json:"personnel"`
	ExamReports     []domain.ExamReport               `json:"exam_reports"`
	PsychReports    []domain.PsychTestReport          `json:"psych_reports"`
	TalkRecords     []domain.TalkRecord               `json:"talk_records"`
	AnalysisReports map[string]domain.AnalysisReport  `json:"analysis_reports"`
}

func newAppState() AppState {
	return AppState{
		Personnel:       make(map[string]domain.PersonnelRecord),
		AnalysisReports: make(map[string]domain.AnalysisReport),
	}
}

// clone copies the document deeply enough that mutating the copy's maps
// and slices leaves the original intact.
func (a AppState) clone() AppState {
	out := a
	if a.SystemConfig != nil {
		cfg := *a.SystemConfig
		out.SystemConfig = &cfg
	}
	out.Personnel = maps.Clone(a.Personnel)
	out.ExamReports = slices.Clone(a.ExamReports)
	out.PsychReports = slices.Clone(a.PsychReports)
	out.TalkRecords = slices.Clone(a.TalkRecords)
	out.AnalysisReports = maps.Clone(a.AnalysisReports)
	return out
}

// Store is safe for concurrent use. Every mutation rewrites the whole
// document before returning.
type Store struct {
	mu       sync.RWMutex
	path     string
	state    AppState
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// Open loads the document at path, starting empty if it does not exist.
// An empty path keeps everything in memory.
func Open(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:     path,
		state:    newAppState(),
		validate: validator.New(),
		logger:   logger.Named("store"),
		now:      time.Now,
	}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("starting with empty state", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}
	if s.state.Personnel == nil {
		s.state.Personnel = make(map[string]domain.PersonnelRecord)
	}
	if s.state.AnalysisReports == nil {
		s.state.AnalysisReports = make(map[string]domain.AnalysisReport)
	}

	s.logger.Info("state loaded",
		zap.String("path", path),
		zap.Int("personnel", len(s.state.Personnel)),
		zap.Int("exam_reports", len(s.state.ExamReports)),
		zap.Int("talk_records", len(s.state.TalkRecords)),
	)

	return s, nil
}

// commit applies one mutation and persists it. If the write fails the
// in-memory document is restored so it keeps matching the file. Callers
// hold the write lock.
func (s *Store) commit(apply func(st *AppState)) error {
	prev := s.state.clone()
	apply(&s.state)

	if err := s.persist(); err != nil {
		s.state = prev
		s.logger.Error("state write failed, change rolled back",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// persist writes the document to a temp file and renames it over the old
// one. Callers hold the write lock.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state: %w", err)
	}

	return nil
}

// SystemConfig returns the persisted access configuration and whether one
// has been saved.
func (s *Store) SystemConfig() (domain.AccessConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.SystemConfig == nil {
		return domain.AccessConfig{}, false
	}
	return *s.state.SystemConfig, true
}

// SetSystemConfig replaces the persisted access configuration.
func (s *Store) SetSystemConfig(cfg domain.AccessConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(func(st *AppState) { st.SystemConfig = &cfg })
}
