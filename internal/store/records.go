package store

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jingxin-guardian/internal/domain"
)

// UpsertPersonnel creates or replaces a personnel record.
func (s *Store) UpsertPersonnel(p domain.PersonnelRecord) error {
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("invalid personnel record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(func(st *AppState) { st.Personnel[p.SubjectID] = p })
}

// Personnel returns the record for subjectID.
func (s *Store) Personnel(subjectID string) (domain.PersonnelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.state.Personnel[subjectID]
	if !ok {
		return domain.PersonnelRecord{}, domain.ErrSubjectNotFound
	}
	return p, nil
}

// AddExamReport stores an exam report, assigning an id and date when unset.
func (s *Store) AddExamReport(r domain.ExamReport) (domain.ExamReport, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date.IsZero() {
		r.Date = s.now()
	}
	if r.Status == "" {
		r.Status = domain.ExamStatusCompleted
	}
	if err := s.validate.Struct(r); err != nil {
		return domain.ExamReport{}, fmt.Errorf("invalid exam report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Personnel[r.SubjectID]; !ok {
		return domain.ExamReport{}, domain.ErrSubjectNotFound
	}

	if err := s.commit(func(st *AppState) { st.ExamReports = append(st.ExamReports, r) }); err != nil {
		return domain.ExamReport{}, err
	}
	return r, nil
}

// ExamReports returns the subject's exam reports, newest first.
func (s *Store) ExamReports(subjectID string) []domain.ExamReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ExamReport
	for _, r := range s.state.ExamReports {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// DeleteExamReport removes one exam report.
func (s *Store) DeleteExamReport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.state.ExamReports {
		if r.ID == id {
			return s.commit(func(st *AppState) {
				st.ExamReports = append(st.ExamReports[:i], st.ExamReports[i+1:]...)
			})
		}
	}
	return domain.ErrRecordNotFound
}

// AddPsychReport stores a finalized assessment.
func (s *Store) AddPsychReport(r domain.PsychTestReport) (domain.PsychTestReport, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date.IsZero() {
		r.Date = s.now()
	}
	if err := s.validate.Struct(r); err != nil {
		return domain.PsychTestReport{}, fmt.Errorf("invalid psych report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(func(st *AppState) { st.PsychReports = append(st.PsychReports, r) }); err != nil {
		return domain.PsychTestReport{}, err
	}
	return r, nil
}

// PsychReports returns the subject's assessments, newest first.
func (s *Store) PsychReports(subjectID string) []domain.PsychTestReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PsychTestReport
	for _, r := range s.state.PsychReports {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// AddTalkRecord stores interview notes.
func (s *Store) AddTalkRecord(t domain.TalkRecord) (domain.TalkRecord, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date == "" {
		t.Date = s.now().Format("2006-01-02")
	}
	if err := s.validate.Struct(t); err != nil {
		return domain.TalkRecord{}, fmt.Errorf("invalid talk record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(func(st *AppState) { st.TalkRecords = append(st.TalkRecords, t) }); err != nil {
		return domain.TalkRecord{}, err
	}
	return t, nil
}

// TalkRecords returns interview notes for subjectID, or all of them when
// subjectID is empty. Insertion order is kept.
func (s *Store) TalkRecords(subjectID string) []domain.TalkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TalkRecord
	for _, t := range s.state.TalkRecords {
		if subjectID == "" || t.SubjectID == subjectID {
			out = append(out, t)
		}
	}
	return out
}

// DeleteTalkRecord removes one interview record.
func (s *Store) DeleteTalkRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.state.TalkRecords {
		if t.ID == id {
			return s.commit(func(st *AppState) {
				st.TalkRecords = append(st.TalkRecords[:i], st.TalkRecords[i+1:]...)
			})
		}
	}
	return domain.ErrRecordNotFound
}

// SaveAnalysisReport replaces the subject's comprehensive report.
func (s *Store) SaveAnalysisReport(r domain.AnalysisReport) error {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Personnel[r.SubjectID]; !ok {
		return domain.ErrSubjectNotFound
	}

	return s.commit(func(st *AppState) { st.AnalysisReports[r.SubjectID] = r })
}

// AnalysisReport returns the subject's stored comprehensive report.
func (s *Store) AnalysisReport(subjectID string) (domain.AnalysisReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.state.AnalysisReports[subjectID]
	if !ok {
		return domain.AnalysisReport{}, domain.ErrRecordNotFound
	}
	return r, nil
}

// ReportContext gathers everything known about one subject for the
// comprehensive report.
func (s *Store) ReportContext(subjectID string) (domain.ReportRequestContext, error) {
	p, err := s.Personnel(subjectID)
	if err != nil {
		return domain.ReportRequestContext{}, err
	}

	rc := domain.ReportRequestContext{
		Personnel:  p,
		Interviews: s.TalkRecords(subjectID),
	}
	for _, r := range s.ExamReports(subjectID) {
		if r.Analysis != "" {
			rc.ExamSummaries = append(rc.ExamSummaries, r.Analysis)
		}
	}
	for _, r := range s.PsychReports(subjectID) {
		rc.PsychSummaries = append(rc.PsychSummaries, psychSummary(r))
	}

	return rc, nil
}

// InterviewContext returns the subject with their latest exam and psych
// reports, either of which may be nil.
func (s *Store) InterviewContext(subjectID string) (domain.InterviewContext, error) {
	p, err := s.Personnel(subjectID)
	if err != nil {
		return domain.InterviewContext{}, err
	}

	ic := domain.InterviewContext{Subject: p}
	if exams := s.ExamReports(subjectID); len(exams) > 0 {
		ic.LatestExam = &exams[0]
	}
	if psych := s.PsychReports(subjectID); len(psych) > 0 {
		ic.LatestPsych = &psych[0]
	}

	return ic, nil
}

// ExamHistory returns the analyses of the subject's earlier exams, newest first.
func (s *Store) ExamHistory(subjectID string) []string {
	var out []string
	for _, r := range s.ExamReports(subjectID) {
		if r.Analysis != "" {
			out = append(out, r.Analysis)
		}
	}
	return out
}

func psychSummary(r domain.PsychTestReport) string {
	level := r.Level
	if level == "" {
		level = "unrated"
	}
	return fmt.Sprintf("%s score %d, level %s: %s", r.Date.Format("2006-01-02"), r.Score, level, r.Content)
}
