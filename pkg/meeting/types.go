// Package meeting turns raw meeting transcripts into structured review
// candidates: decisions, tasks, parking-lot ideas and risks.
//
// Extraction is heuristic pattern matching. Every record it produces is a
// candidate for a human reviewer, never a committed fact.
package meeting

// SectionCount is the number of discussion sections in every meeting.
const SectionCount = 6

// SectionTitles are the fixed section titles, indexed by ordinal-1.
var SectionTitles = [SectionCount]string{
	"Opening + Intent",
	"Review SOW Deliverables",
	"Review Action Log",
	"Decision Confirmations",
	"Parking Lot",
	"Risks / Blockers",
}

// Section ordinals with special extraction rules.
const (
	ParkingLotSection = 5
	RiskSection       = 6
)

// Level is a High/Medium/Low rating used for priority, impact and risk.
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

// Placeholder values assigned at extraction time.
const (
	OwnerTBD          = "[TBD]"
	StatusNotStarted  = "Not Started"
	DefaultApprover   = "Team"
	DefaultContext    = "Extracted from meeting discussion"
	DefaultPhase      = "Phase 2"
	DefaultRaisedBy   = "Team"
	DefaultMitigation = "To be determined"
	NotDetected       = "Not detected"
)

// DefaultMeetingType is used when a request does not name one.
const DefaultMeetingType = "Weekly Sprint Review"

// DuplicateThreshold is the similarity a task must strictly exceed to be
// flagged as a likely duplicate.
const DuplicateThreshold = 0.8

// Metadata describes one processed meeting.
type Metadata struct {
	MeetingDate    string   `json:"meeting_date" yaml:"meeting_date"`
	MeetingID      string   `json:"meeting_id" yaml:"meeting_id"`
	MeetingType    string   `json:"meeting_type" yaml:"meeting_type"`
	Attendees      []string `json:"attendees" yaml:"attendees"`
	FathomLink     string   `json:"fathom_link,omitempty" yaml:"fathom_link,omitempty"`
	WordCount      int      `json:"transcript_word_count" yaml:"transcript_word_count"`
	ProcessingDate string   `json:"processing_date" yaml:"processing_date"`
}

// Section is the extraction summary for one of the six discussion sections.
type Section struct {
	Number           int      `json:"section_number" yaml:"section_number"`
	Title            string   `json:"section_title" yaml:"section_title"`
	Summary          string   `json:"discussion_summary" yaml:"discussion_summary"`
	KeyPoints        []string `json:"key_points" yaml:"key_points"`
	RelatedDecisions []string `json:"related_decisions" yaml:"related_decisions"`
	RelatedTasks     []string `json:"related_tasks" yaml:"related_tasks"`
}

// Decision is a decision candidate found in the transcript.
type Decision struct {
	ID            string   `json:"decision_id" yaml:"decision_id"`
	Summary       string   `json:"decision_summary" yaml:"decision_summary"`
	Context       string   `json:"context" yaml:"context"`
	ApprovedBy    string   `json:"approved_by" yaml:"approved_by"`
	Impact        Level    `json:"impact" yaml:"impact"`
	ReversalRisk  Level    `json:"reversal_risk" yaml:"reversal_risk"`
	SourceSection int      `json:"source_section" yaml:"source_section"`
	RelatedTasks  []string `json:"related_tasks" yaml:"related_tasks"`
}

// Task is a new task candidate found in the transcript.
type Task struct {
	ID               string `json:"task_id" yaml:"task_id"`
	Description      string `json:"description" yaml:"description"`
	Category         string `json:"category" yaml:"category"`
	Priority         Level  `json:"priority" yaml:"priority"`
	Owner            string `json:"owner" yaml:"owner"`
	SourceSection    int    `json:"source_section" yaml:"source_section"`
	LinkedDecisionID string `json:"linked_decision_id,omitempty" yaml:"linked_decision_id,omitempty"`
	Status           string `json:"status" yaml:"status"`
}

// DuplicateCheck is the result of comparing one new task against the
// existing-task snapshot. SimilarTo is set only when IsDuplicate is true.
type DuplicateCheck struct {
	TaskID      string  `json:"task_id" yaml:"task_id"`
	SimilarTo   string  `json:"similar_to,omitempty" yaml:"similar_to,omitempty"`
	Similarity  float64 `json:"similarity" yaml:"similarity"`
	IsDuplicate bool    `json:"is_duplicate" yaml:"is_duplicate"`
}

// ParkingLotItem is an idea deferred to a later phase.
type ParkingLotItem struct {
	Idea           string `json:"idea" yaml:"idea"`
	SuggestedPhase string `json:"suggested_phase" yaml:"suggested_phase"`
	RaisedBy       string `json:"raised_by" yaml:"raised_by"`
}

// RiskBlocker is a risk or blocker raised in the meeting.
type RiskBlocker struct {
	Risk        string `json:"risk" yaml:"risk"`
	Probability Level  `json:"probability" yaml:"probability"`
	Mitigation  string `json:"mitigation" yaml:"mitigation"`
}

// ExistingTask is the canonical shape of a task already in the task store.
type ExistingTask struct {
	ID          string `json:"task_id" yaml:"task_id"`
	Description string `json:"task_description" yaml:"task_description"`
}

// ExtractionResult is everything extracted from one transcript.
type ExtractionResult struct {
	Metadata        Metadata         `json:"metadata" yaml:"metadata"`
	Sections        []Section        `json:"sections" yaml:"sections"`
	Decisions       []Decision       `json:"decisions" yaml:"decisions"`
	Tasks           []Task           `json:"tasks" yaml:"tasks"`
	DuplicateChecks []DuplicateCheck `json:"duplicate_checks" yaml:"duplicate_checks"`
	ParkingLot      []ParkingLotItem `json:"parking_lot" yaml:"parking_lot"`
	Risks           []RiskBlocker    `json:"risks" yaml:"risks"`
}

// Duplicates returns the checks flagged as likely duplicates, in task order.
func (r *ExtractionResult) Duplicates() []DuplicateCheck {
	var out []DuplicateCheck
	for _, dc := range r.DuplicateChecks {
		if dc.IsDuplicate {
			out = append(out, dc)
		}
	}
	return out
}

// CategoryFor returns the task category for a section ordinal. Categories
// are the section titles; ordinals outside 1..6 map to "General".
func CategoryFor(ordinal int) string {
	if ordinal < 1 || ordinal > SectionCount {
		return "General"
	}
	return SectionTitles[ordinal-1]
}
