package domain

import "time"

// PersonnelRecord describes one subject. The core treats it as opaque
// context for prompts.
type PersonnelRecord struct {
	SubjectID  string `json:"subject_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Age        int    `json:"age,omitempty" validate:"gte=0,lte=120"`
	Phone      string `json:"phone,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// DisplayName falls back to a neutral form of address when the name is unknown.
func (p PersonnelRecord) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "colleague"
}

// ExamStatus is the processing state of an uploaded exam report.
type ExamStatus string

const (
	ExamStatusPending   ExamStatus = "pending"
	ExamStatusCompleted ExamStatus = "completed"
)

// ExamReport is a medical examination upload and its AI analysis.
type ExamReport struct {
	ID        string     `json:"id" validate:"required"`
	SubjectID string     `json:"subject_id" validate:"required"`
	Date      time.Time  `json:"date"`
	FileName  string     `json:"file_name"`
	Analysis  string     `json:"analysis"`
	Status    ExamStatus `json:"status" validate:"oneof=pending completed"`
}

// PsychTestReport is the finalized assessment emitted when an interview
// session reaches its last round.
type PsychTestReport struct {
	ID        string       `json:"id" validate:"required"`
	SubjectID string       `json:"subject_id" validate:"required"`
	Date      time.Time    `json:"date"`
	Score     int          `json:"score" validate:"gte=0,lte=100"`
	Level     string       `json:"level,omitempty"`
	Content   string       `json:"content"`
	Messages  Conversation `json:"messages"`
}

// GunSuitability is the interviewer's judgment on carrying a firearm.
type GunSuitability string

const (
	GunSuitable   GunSuitability = "suitable"
	GunObserve    GunSuitability = "observe"
	GunSuspend    GunSuitability = "suspend"
	GunUnsuitable GunSuitability = "unsuitable"
)

// TalkRecord captures a supervisor's heart-to-heart interview notes.
type TalkRecord struct {
	ID           string `json:"id"`
	SubjectID    string `json:"subject_id" validate:"required"`
	OfficerName  string `json:"officer_name" validate:"required"`
	Interviewer  string `json:"interviewer" validate:"required"`
	Participants string `json:"participants,omitempty"`
	Date         string `json:"date,omitempty"`
	Location     string `json:"location,omitempty"`

	HasFamilyConflict    bool   `json:"has_family_conflict"`
	FamilyConflictDetail string `json:"family_conflict_detail,omitempty"`
	HasMajorChange       bool   `json:"has_major_change"`
	MajorChangeDetail    string `json:"major_change_detail,omitempty"`
	HasDebt              bool   `json:"has_debt"`
	DebtDetail           string `json:"debt_detail,omitempty"`
	HasAlcoholIssue      bool   `json:"has_alcohol_issue"`
	AlcoholDetail        string `json:"alcohol_detail,omitempty"`
	HasRelationshipIssue bool   `json:"has_relationship_issue"`
	RelationshipDetail   string `json:"relationship_detail,omitempty"`
	HasComplexSocial     bool   `json:"has_complex_social"`
	ComplexSocialDetail  string `json:"complex_social_detail,omitempty"`
	IsUnderInvestigation bool   `json:"is_under_investigation"`
	InvestigationDetail  string `json:"investigation_detail,omitempty"`
	HasMentalIssue       bool   `json:"has_mental_issue"`
	MentalIssueDetail    string `json:"mental_issue_detail,omitempty"`

	ThoughtDynamic     string         `json:"thought_dynamic,omitempty"`
	RealityPerformance string         `json:"reality_performance,omitempty"`
	MentalStatus       string         `json:"mental_status,omitempty"`
	CanCarryGun        GunSuitability `json:"can_carry_gun" validate:"omitempty,oneof=suitable observe suspend unsuitable"`
}

// RiskCount returns how many of the eight risk flags are set.
func (t TalkRecord) RiskCount() int {
	n := 0
	for _, flag := range []bool{
		t.HasFamilyConflict, t.HasMajorChange, t.HasDebt, t.HasAlcoholIssue,
		t.HasRelationshipIssue, t.HasComplexSocial, t.IsUnderInvestigation, t.HasMentalIssue,
	} {
		if flag {
			n++
		}
	}
	return n
}

// HighRisk reports whether any risk flag is set.
func (t TalkRecord) HighRisk() bool {
	return t.RiskCount() > 0
}

// EditStatus tells whether a report is raw model output or leader-reviewed.
type EditStatus string

const (
	EditStatusAI       EditStatus = "ai"
	EditStatusModified EditStatus = "modified"
)

// AnalysisReport is the stored comprehensive appraisal for a subject.
type AnalysisReport struct {
	SubjectID   string     `json:"subject_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Content     string     `json:"content"`
	ManualEdit  string     `json:"manual_edit,omitempty"`
	EditStatus  EditStatus `json:"edit_status"`
	EditorName  string     `json:"editor_name,omitempty"`
}

// Effective returns the reviewed text when present, the model text otherwise.
func (r AnalysisReport) Effective() string {
	if r.ManualEdit != "" {
		return r.ManualEdit
	}
	return r.Content
}

// QuickCorrection is one of the canned reviewer annotations.
type QuickCorrection string

const (
	CorrectionProfessional QuickCorrection = "professional"
	CorrectionStricter     QuickCorrection = "stricter"
	CorrectionSoften       QuickCorrection = "soften"
)

// Suffix returns the annotation appended to the report, empty if unknown.
func (q QuickCorrection) Suffix() string {
	switch q {
	case CorrectionProfessional:
		return "\n\n[Reviewer note: the above should be further checked against the professional ethics code for police officers.]"
	case CorrectionStricter:
		return "\n\n[Manual review: the officer holds a sensitive front-line post; strengthen bottom-line assessments and guard against disciplinary risk.]"
	case CorrectionSoften:
		return "\n\n[Leadership note: work pressure is unavoidable; focus on separating emotions from duty, the organization will give full support.]"
	default:
		return ""
	}
}
