package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/jingxin-guardian/internal/domain"
)

// Language selects the prompt wording. Models answer in the language they
// are prompted in.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
)

// IsValid reports whether l has a prompt set.
func (l Language) IsValid() bool {
	_, ok := promptSets[l]
	return ok
}

// promptSet is the full wording for one language.
type promptSet struct {
	reportInstruction string
	examSystem        string
	openingSystem     string
	counselingSystem  string

	// finalMarker appears in the system instruction of the last interview
	// round only.
	finalMarker string

	exam       string
	report     string
	opening    string
	turnSystem string
	transcript string

	officer, counselor, none string
	examFallback             string
	openingFallback          string
	turnFallback             string
}

var promptSets = map[Language]promptSet{
	LanguageChinese: {
		reportInstruction: `你是一名资深的公安政工与职业心理分析专家。
请根据民警的基本信息、体检分析、心理测评和谈心谈话记录，撰写一份综合研判报告，包含以下部分：
1. 总体评价（一段话）
2. 身体健康风险
3. 心理状态与压力来源
4. 思想动态与现实表现
5. 风险等级（低 / 中 / 高）及理由
6. 对单位领导的工作建议，包括是否适合佩枪
要求客观具体，去病理化，给出可操作的战术性建议。`,
		examSystem:       "你是一名警务职业健康专家。",
		openingSystem:    "你是一名专业的警务心理咨询师。",
		counselingSystem: "请继续进行心理疏导对话。",
		finalMarker:      "最后一轮",

		exam: `分析以下体检数据，指出异常指标、职业健康风险和后续建议。

体检数据：
---
{{.Content}}
---

历史参考：
---
{{if .History}}{{.History}}{{else}}{{.None}}{{end}}
---`,
		report: `民警：{{.Name}}（{{.SubjectID}}）{{if .Department}}，{{.Department}}{{end}}{{if .Position}}，{{.Position}}{{end}}
基本信息：{{.Profile}}
体检：{{.Exams}}
测评：{{.Psychs}}
谈话：{{.Talks}}

{{.Instruction}}`,
		opening: `你是警务心理支持咨询师。背景信息：
民警档案：{{.Profile}}
最近体检：{{.Exam}}
最近心理测评：{{.Psych}}

请根据民警的情况开启对话，去病理化，并给出战术性建议。`,
		turnSystem: `你是警务心理咨询师。这是第 {{.Round}} 轮对话，共 {{.MaxRounds}} 轮。当前对象：{{.Name}}。
请以亲切的战友语气交流，每次只问一个重点问题。
{{- if .Final}}
{{.Marker}}：现在结束对话并输出评估报告。报告中须包含一行“评分：<0-100>”和一行“等级：<优秀|良好|一般|较差>”。
{{- else}}
评估报告在第 {{.MaxRounds}} 轮输出，现在不要写。
{{- end}}`,
		transcript: `目前的对话：
{{range .Turns}}{{speaker .Speaker}}：{{.Text}}
{{end}}
请回复民警的最新一条消息。`,

		officer:         "民警",
		counselor:       "咨询师",
		none:            "无",
		examFallback:    "分析以下体检数据：\n\n",
		openingFallback: "请开启一次心理疏导对话。",
		turnFallback:    "你是警务心理咨询师。这是第 %d 轮对话。",
	},
	LanguageEnglish: {
		reportInstruction: `You are a senior police political-work and occupational psychology analyst.
Based on the officer's profile, examination analyses, psychological assessments and interview records,
write a comprehensive appraisal report with these sections:
1. Overall assessment (one paragraph)
2. Physical health risks
3. Psychological state and stress sources
4. Ideological dynamics and real-world performance
5. Risk level (low / medium / high) with reasons
6. Recommendations for the unit leadership, including firearm suitability
Be objective and specific. Do not pathologize; give tactical, actionable advice.`,
		examSystem:       "You are a police occupational health expert.",
		openingSystem:    "You are a professional police psychological counselor.",
		counselingSystem: "Continue the psychological counseling conversation.",
		finalMarker:      "FINAL ROUND",

		exam: `Analyze the following physical examination data and point out abnormal indicators, occupational health risks and follow-up advice.

Examination data:
---
{{.Content}}
---

Prior history for reference:
---
{{if .History}}{{.History}}{{else}}{{.None}}{{end}}
---`,
		report: `Officer: {{.Name}} ({{.SubjectID}}){{if .Department}}, {{.Department}}{{end}}{{if .Position}}, {{.Position}}{{end}}
Profile: {{.Profile}}
Examination analyses: {{.Exams}}
Psychological assessments: {{.Psychs}}
Interview records: {{.Talks}}

{{.Instruction}}`,
		opening: `You are a police psychological support counselor. Background:
Officer profile: {{.Profile}}
Latest examination: {{.Exam}}
Latest psychological assessment: {{.Psych}}

Open the conversation based on the officer's situation. Keep it de-pathologized and give tactical suggestions.`,
		turnSystem: `You are a police psychological counselor. This is round {{.Round}} of {{.MaxRounds}}. Current officer: {{.Name}}.
Talk in a warm, comradely tone and ask one focused question at a time.
{{- if .Final}}
{{.Marker}}: finish the conversation now and output the assessment report. Include a line "Score: <0-100>" and a line "Level: <excellent|good|fair|poor>".
{{- else}}
The assessment report is written in round {{.MaxRounds}}; do not write it yet.
{{- end}}`,
		transcript: `Conversation so far:
{{range .Turns}}{{speaker .Speaker}}: {{.Text}}
{{end}}
Reply to the officer's latest message.`,

		officer:         "Officer",
		counselor:       "Counselor",
		none:            "none",
		examFallback:    "Analyze this examination data:\n\n",
		openingFallback: "Open a counseling conversation.",
		turnFallback:    "You are a police psychological counselor. This is round %d.",
	},
}

// isFinalRound reports whether a system instruction marks the last
// interview round in any language.
func isFinalRound(system string) bool {
	for _, set := range promptSets {
		if strings.Contains(system, set.finalMarker) {
			return true
		}
	}
	return false
}

// PromptBuilder assembles model-facing prompts from domain records. All
// methods are pure.
type PromptBuilder struct {
	lang Language
	set  promptSet

	exam       *template.Template
	report     *template.Template
	opening    *template.Template
	turnSystem *template.Template
	transcript *template.Template
}

// NewPromptBuilder parses the prompt templates for lang.
func NewPromptBuilder(lang Language) (*PromptBuilder, error) {
	set, ok := promptSets[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported prompt language %q", lang)
	}

	b := &PromptBuilder{lang: lang, set: set}
	funcs := template.FuncMap{"speaker": b.speakerLabel}

	for _, t := range []struct {
		dst  **template.Template
		name string
		text string
	}{
		{&b.exam, "exam", set.exam},
		{&b.report, "report", set.report},
		{&b.opening, "opening", set.opening},
		{&b.turnSystem, "turn_system", set.turnSystem},
		{&b.transcript, "transcript", set.transcript},
	} {
		tmpl, err := template.New(t.name).Funcs(funcs).Parse(t.text)
		if err != nil {
			return nil, fmt.Errorf("parse %s template (%s): %w", t.name, lang, err)
		}
		*t.dst = tmpl
	}

	return b, nil
}

// MustPromptBuilder is NewPromptBuilder for a built-in language, whose
// templates are known to parse.
func MustPromptBuilder(lang Language) *PromptBuilder {
	b, err := NewPromptBuilder(lang)
	if err != nil {
		panic(err)
	}
	return b
}

// Language returns the wording the builder was created for.
func (b *PromptBuilder) Language() Language {
	return b.lang
}

// ReportInstruction is the fixed instruction for the comprehensive report.
func (b *PromptBuilder) ReportInstruction() string {
	return b.set.reportInstruction
}

// ExamAnalysis builds the exam-analysis prompt with prior history as context.
func (b *PromptBuilder) ExamAnalysis(content string, history []string) (prompt, system string) {
	data := struct {
		Content, History, None string
	}{
		Content: content,
		History: strings.Join(history, "\n---\n"),
		None:    b.set.none,
	}

	return execute(b.exam, data, b.set.examFallback+content), b.set.examSystem
}

// ComprehensiveReport concatenates every record about one subject into a
// single structured brief.
func (b *PromptBuilder) ComprehensiveReport(rc domain.ReportRequestContext) (prompt, system string) {
	p := rc.Personnel
	data := struct {
		Name, SubjectID, Department, Position string
		Profile, Exams, Psychs, Talks        string
		Instruction                          string
	}{
		Name:        p.Name,
		SubjectID:   p.SubjectID,
		Department:  p.Department,
		Position:    p.Position,
		Profile:     toJSON(p),
		Exams:       toJSON(nonNil(rc.ExamSummaries)),
		Psychs:      toJSON(nonNil(rc.PsychSummaries)),
		Talks:       toJSON(rc.Interviews),
		Instruction: b.set.reportInstruction,
	}

	fallback := toJSON(rc) + "\n\n" + b.set.reportInstruction
	return execute(b.report, data, fallback), b.set.reportInstruction
}

// InterviewOpening builds the introduction prompt from the subject's most
// recent exam and psych context.
func (b *PromptBuilder) InterviewOpening(ic domain.InterviewContext) (prompt, system string) {
	data := struct {
		Profile, Exam, Psych string
	}{
		Profile: toJSON(ic.Subject),
		Exam:    b.set.none,
		Psych:   b.set.none,
	}
	if ic.LatestExam != nil {
		data.Exam = ic.LatestExam.Analysis
	}
	if ic.LatestPsych != nil {
		data.Psych = ic.LatestPsych.Content
	}

	return execute(b.opening, data, b.set.openingFallback), b.set.openingSystem
}

// InterviewTurn builds the prompt for the assistant reply in the given
// round. The transcript must already contain the human turn being answered.
func (b *PromptBuilder) InterviewTurn(subject domain.PersonnelRecord, round, maxRounds int, transcript domain.Conversation) (prompt, system string) {
	sysData := struct {
		Round, MaxRounds int
		Name             string
		Final            bool
		Marker           string
	}{
		Round:     round,
		MaxRounds: maxRounds,
		Name:      subject.DisplayName(),
		Final:     round >= maxRounds,
		Marker:    b.set.finalMarker,
	}

	system = execute(b.turnSystem, sysData, fmt.Sprintf(b.set.turnFallback, round))
	return b.renderTranscript(transcript), system
}

// CounselingTurn builds the prompt for the open-ended counseling chat.
func (b *PromptBuilder) CounselingTurn(transcript domain.Conversation) (prompt, system string) {
	return b.renderTranscript(transcript), b.set.counselingSystem
}

func (b *PromptBuilder) renderTranscript(transcript domain.Conversation) string {
	data := struct{ Turns domain.Conversation }{Turns: transcript}

	fallback := ""
	if last, ok := transcript.Last(); ok {
		fallback = last.Text
	}
	return execute(b.transcript, data, fallback)
}

func execute(t *template.Template, data any, fallback string) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fallback
	}
	return buf.String()
}

func (b *PromptBuilder) speakerLabel(s domain.Speaker) string {
	if s == domain.SpeakerAssistant {
		return b.set.counselor
	}
	return b.set.officer
}

// toJSON serializes v without HTML escaping; prompts are not HTML.
func toJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(buf.String())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
