package entitlement

// Action is a metered operation a user can spend quota on.
type Action string

const (
	ActionResumeAnalysis      Action = "resume_analysis"
	ActionResumeCreation      Action = "resume_creation"
	ActionResumeDownload      Action = "resume_download"
	ActionCoverLetterAnalysis Action = "cover_letter_analysis"
	ActionResumeTailoring     Action = "resume_tailoring"
	ActionAISectionTailoring  Action = "ai_section_tailoring"
)

// Actions lists every metered action.
var Actions = []Action{
	ActionResumeAnalysis,
	ActionResumeCreation,
	ActionResumeDownload,
	ActionCoverLetterAnalysis,
	ActionResumeTailoring,
	ActionAISectionTailoring,
}

func (a Action) Valid() bool {
	switch a {
	case ActionResumeAnalysis, ActionResumeCreation, ActionResumeDownload,
		ActionCoverLetterAnalysis, ActionResumeTailoring, ActionAISectionTailoring:
		return true
	}
	return false
}

// label is the human-readable form used in denial reasons.
func (a Action) label() string {
	switch a {
	case ActionResumeAnalysis:
		return "resume analyses"
	case ActionResumeCreation:
		return "resume creations"
	case ActionResumeDownload:
		return "resume downloads"
	case ActionCoverLetterAnalysis:
		return "cover letter analyses"
	case ActionResumeTailoring:
		return "resume tailoring runs"
	case ActionAISectionTailoring:
		return "AI section tailoring runs"
	}
	return string(a)
}

// Plan is a subscription tier.
type Plan string

const (
	PlanFree      Plan = "free"
	PlanBasic     Plan = "basic"
	PlanUnlimited Plan = "unlimited"
)

// Unlimited is the sentinel cap meaning "no limit". It must never be
// compared against usage as a numeric ceiling.
const Unlimited = -1

// PlanLimits holds the monthly cap for each metered action.
type PlanLimits struct {
	ResumeAnalyses      int
	ResumeCreations     int
	ResumeDownloads     int
	CoverLetterAnalyses int
	ResumeTailoring     int
	AISectionTailoring  int
}

// Limit returns the cap for one action.
func (l PlanLimits) Limit(a Action) int {
	switch a {
	case ActionResumeAnalysis:
		return l.ResumeAnalyses
	case ActionResumeCreation:
		return l.ResumeCreations
	case ActionResumeDownload:
		return l.ResumeDownloads
	case ActionCoverLetterAnalysis:
		return l.CoverLetterAnalyses
	case ActionResumeTailoring:
		return l.ResumeTailoring
	case ActionAISectionTailoring:
		return l.AISectionTailoring
	}
	return 0
}

// Usage mirrors PlanLimits with the counts a user has already spent this
// calendar month.
type Usage struct {
	ResumeAnalyses      int
	ResumeCreations     int
	ResumeDownloads     int
	CoverLetterAnalyses int
	ResumeTailoring     int
	AISectionTailoring  int
}

func (u Usage) Count(a Action) int {
	switch a {
	case ActionResumeAnalysis:
		return u.ResumeAnalyses
	case ActionResumeCreation:
		return u.ResumeCreations
	case ActionResumeDownload:
		return u.ResumeDownloads
	case ActionCoverLetterAnalysis:
		return u.CoverLetterAnalyses
	case ActionResumeTailoring:
		return u.ResumeTailoring
	case ActionAISectionTailoring:
		return u.AISectionTailoring
	}
	return 0
}

func (u *Usage) set(a Action, n int) {
	switch a {
	case ActionResumeAnalysis:
		u.ResumeAnalyses = n
	case ActionResumeCreation:
		u.ResumeCreations = n
	case ActionResumeDownload:
		u.ResumeDownloads = n
	case ActionCoverLetterAnalysis:
		u.CoverLetterAnalyses = n
	case ActionResumeTailoring:
		u.ResumeTailoring = n
	case ActionAISectionTailoring:
		u.AISectionTailoring = n
	}
}

// DefaultPlanLimits is the plan table shipped with the product. The gate
// takes the table through Config so tests can inject their own.
func DefaultPlanLimits() map[Plan]PlanLimits {
	return map[Plan]PlanLimits{
		PlanFree: {
			ResumeAnalyses:      3,
			ResumeCreations:     3,
			ResumeDownloads:     0,
			CoverLetterAnalyses: 0,
			ResumeTailoring:     3,
			AISectionTailoring:  2,
		},
		PlanBasic: {
			ResumeAnalyses:      25,
			ResumeCreations:     25,
			ResumeDownloads:     10,
			CoverLetterAnalyses: 0,
			ResumeTailoring:     25,
			AISectionTailoring:  12,
		},
		PlanUnlimited: {
			ResumeAnalyses:      Unlimited,
			ResumeCreations:     Unlimited,
			ResumeDownloads:     Unlimited,
			CoverLetterAnalyses: Unlimited,
			ResumeTailoring:     Unlimited,
			AISectionTailoring:  Unlimited,
		},
	}
}
