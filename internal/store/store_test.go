package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jingxin-guardian/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var subject = domain.PersonnelRecord{SubjectID: "p-001", Name: "Zhang Wei", Department: "Patrol"}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state", "guardian.json")
	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	s, _ := openTemp(t)

	_, ok := s.SystemConfig()
	assert.False(t, ok)
	_, err := s.Personnel("p-001")
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path, zap.NewNop())
	assert.Error(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)

	require.NoError(t, s.SetSystemConfig(domain.AccessConfig{Credential: "sk-x", EndpointBase: "https://x", ModelID: "m"}))
	require.NoError(t, s.UpsertPersonnel(subject))
	exam, err := s.AddExamReport(domain.ExamReport{SubjectID: "p-001", FileName: "2024.pdf", Analysis: "blood pressure high"})
	require.NoError(t, err)

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	cfg, ok := reopened.SystemConfig()
	require.True(t, ok)
	assert.Equal(t, "sk-x", cfg.Credential)

	p, err := reopened.Personnel("p-001")
	require.NoError(t, err)
	assert.Equal(t, subject, p)

	exams := reopened.ExamReports("p-001")
	require.Len(t, exams, 1)
	assert.Equal(t, exam.ID, exams[0].ID)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_InMemory(t *testing.T) {
	s, err := Open("", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.UpsertPersonnel(subject))
	_, err = s.Personnel("p-001")
	assert.NoError(t, err)
}

func TestUpsertPersonnel_Validation(t *testing.T) {
	s, _ := openTemp(t)

	tests := []struct {
		name    string
		record  domain.PersonnelRecord
		wantErr bool
	}{
		{name: "valid", record: subject},
		{name: "missing id", record: domain.PersonnelRecord{Name: "x"}, wantErr: true},
		{name: "missing name", record: domain.PersonnelRecord{SubjectID: "p-2"}, wantErr: true},
		{name: "negative age", record: domain.PersonnelRecord{SubjectID: "p-3", Name: "x", Age: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpsertPersonnel(tt.record)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExamReports_NewestFirstAndDelete(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.UpsertPersonnel(subject))

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	old, err := s.AddExamReport(domain.ExamReport{SubjectID: "p-001", Date: base, Analysis: "old"})
	require.NoError(t, err)
	_, err = s.AddExamReport(domain.ExamReport{SubjectID: "p-001", Date: base.AddDate(1, 0, 0), Analysis: "new"})
	require.NoError(t, err)

	exams := s.ExamReports("p-001")
	require.Len(t, exams, 2)
	assert.Equal(t, "new", exams[0].Analysis)
	assert.Equal(t, domain.ExamStatusCompleted, exams[0].Status)
	assert.Equal(t, []string{"new", "old"}, s.ExamHistory("p-001"))

	require.NoError(t, s.DeleteExamReport(old.ID))
	assert.Len(t, s.ExamReports("p-001"), 1)
	assert.ErrorIs(t, s.DeleteExamReport(old.ID), domain.ErrRecordNotFound)
}

func TestAddExamReport_UnknownSubject(t *testing.T) {
	s, _ := openTemp(t)

	_, err := s.AddExamReport(domain.ExamReport{SubjectID: "nobody", Analysis: "x"})
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestTalkRecords(t *testing.T) {
	s, _ := openTemp(t)

	talk := domain.TalkRecord{
		SubjectID:   "p-001",
		OfficerName: "Zhang Wei",
		Interviewer: "Director Li",
		HasDebt:     true,
		DebtDetail:  "mortgage arrears",
		CanCarryGun: domain.GunObserve,
	}
	saved, err := s.AddTalkRecord(talk)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.NotEmpty(t, saved.Date)

	_, err = s.AddTalkRecord(domain.TalkRecord{SubjectID: "p-002", OfficerName: "Li", Interviewer: "Wang"})
	require.NoError(t, err)

	assert.Len(t, s.TalkRecords("p-001"), 1)
	assert.Len(t, s.TalkRecords(""), 2)

	_, err = s.AddTalkRecord(domain.TalkRecord{SubjectID: "p-001", OfficerName: "x", Interviewer: "y", CanCarryGun: "maybe"})
	assert.Error(t, err, "unknown gun suitability")

	require.NoError(t, s.DeleteTalkRecord(saved.ID))
	assert.Empty(t, s.TalkRecords("p-001"))
	assert.ErrorIs(t, s.DeleteTalkRecord(saved.ID), domain.ErrRecordNotFound)
}

func TestReportContext(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.UpsertPersonnel(subject))

	_, err := s.AddExamReport(domain.ExamReport{SubjectID: "p-001", Analysis: "exam one"})
	require.NoError(t, err)
	_, err = s.AddExamReport(domain.ExamReport{SubjectID: "p-001", Status: domain.ExamStatusPending})
	require.NoError(t, err)
	_, err = s.AddPsychReport(domain.PsychTestReport{SubjectID: "p-001", Score: 80, Level: "good", Content: "stable"})
	require.NoError(t, err)
	_, err = s.AddTalkRecord(domain.TalkRecord{SubjectID: "p-001", OfficerName: "Zhang Wei", Interviewer: "Li"})
	require.NoError(t, err)

	rc, err := s.ReportContext("p-001")
	require.NoError(t, err)

	assert.Equal(t, subject, rc.Personnel)
	assert.Equal(t, []string{"exam one"}, rc.ExamSummaries, "pending exams without analysis are skipped")
	require.Len(t, rc.PsychSummaries, 1)
	assert.Contains(t, rc.PsychSummaries[0], "score 80, level good: stable")
	assert.Len(t, rc.Interviews, 1)

	_, err = s.ReportContext("nobody")
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestInterviewContext(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.UpsertPersonnel(subject))

	ic, err := s.InterviewContext("p-001")
	require.NoError(t, err)
	assert.Nil(t, ic.LatestExam)
	assert.Nil(t, ic.LatestPsych)

	_, err = s.AddExamReport(domain.ExamReport{SubjectID: "p-001", Analysis: "latest"})
	require.NoError(t, err)

	ic, err = s.InterviewContext("p-001")
	require.NoError(t, err)
	require.NotNil(t, ic.LatestExam)
	assert.Equal(t, "latest", ic.LatestExam.Analysis)
}

func TestAnalysisReport(t *testing.T) {
	s, _ := openTemp(t)

	err := s.SaveAnalysisReport(domain.AnalysisReport{SubjectID: "p-001", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)

	require.NoError(t, s.UpsertPersonnel(subject))
	require.NoError(t, s.SaveAnalysisReport(domain.AnalysisReport{
		SubjectID:  "p-001",
		Content:    "model text",
		EditStatus: domain.EditStatusAI,
	}))

	r, err := s.AnalysisReport("p-001")
	require.NoError(t, err)
	assert.Equal(t, "model text", r.Effective())
	assert.False(t, r.GeneratedAt.IsZero())

	_, err = s.AnalysisReport("p-002")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

// blockWrites replaces the state directory with a plain file so every
// later write fails.
func blockWrites(t *testing.T, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, nil, 0o600))
}

func TestStore_FailedWriteRollsBack(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.UpsertPersonnel(subject))
	exam, err := s.AddExamReport(domain.ExamReport{SubjectID: "p-001", Analysis: "ok"})
	require.NoError(t, err)

	blockWrites(t, path)

	renamed := subject
	renamed.Name = "Li Na"
	assert.Error(t, s.UpsertPersonnel(renamed))
	got, err := s.Personnel("p-001")
	require.NoError(t, err)
	assert.Equal(t, "Zhang Wei", got.Name)

	_, err = s.AddPsychReport(domain.PsychTestReport{SubjectID: "p-001", Content: "final", Score: 80})
	assert.Error(t, err)
	assert.Empty(t, s.PsychReports("p-001"))

	_, err = s.AddTalkRecord(domain.TalkRecord{SubjectID: "p-001", OfficerName: "Zhang Wei", Interviewer: "Chief Wang"})
	assert.Error(t, err)
	assert.Empty(t, s.TalkRecords(""))

	assert.Error(t, s.DeleteExamReport(exam.ID))
	assert.Len(t, s.ExamReports("p-001"), 1)

	assert.Error(t, s.SetSystemConfig(domain.AccessConfig{Credential: "sk-new"}))
	_, saved := s.SystemConfig()
	assert.False(t, saved)
}
