package meeting

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	summaryLength     = 200
	maxKeyPoints      = 5
	fallbackSentences = 3
)

var (
	bulletLineRegex   = mustCompile(`^[•\-*]\s`)
	numberedLineRegex = mustCompile(`^\d+[.)]\s`)
	listMarkerRegex   = mustCompile(`^(?:[•\-*]|\d+[.)])\s*`)
	sentenceRegex     = mustCompile(`[^.!?]+[.!?]+`)

	// Each pattern captures the rest of the clause up to a sentence terminator.
	decisionPatterns = []*regexp.Regexp{
		mustCompile(`(?i)decided\s+(?:to\s+)?([^.!?]+)`),
		mustCompile(`(?i)agreed\s+(?:to\s+)?([^.!?]+)`),
		mustCompile(`(?i)approved\s+([^.!?]+)`),
		mustCompile(`(?i)confirmed\s+([^.!?]+)`),
	}

	taskPatterns = []*regexp.Regexp{
		mustCompile(`(?i)need\s+to\s+([^.!?]+)`),
		mustCompile(`(?i)should\s+([^.!?]+)`),
		mustCompile(`(?i)action\s+item[:\s]+([^.!?]+)`),
		mustCompile(`(?i)task[:\s]+([^.!?]+)`),
	}

	parkingLotPattern = mustCompile(`(?i)(?:phase\s+2|future|later)[:\s]*([^.!?]+)`)
	riskPattern       = mustCompile(`(?i)(?:risk|concern|blocker|issue)[:\s]*([^.!?]+)`)

	highPriorityKeywords = []string{"critical", "urgent", "must", "immediately", "asap"}
	lowPriorityKeywords  = []string{"nice to have", "consider", "maybe", "eventually"}
)

// SectionData is everything extracted from one section's text.
type SectionData struct {
	Section    Section
	Decisions  []Decision
	Tasks      []Task
	ParkingLot []ParkingLotItem
	Risks      []RiskBlocker
}

// ExtractSection extracts the summary, key points and record candidates
// from one section. ordinal is 1..6; meetingID is only used to build
// decision identifiers. Decision and task sequences start at 1 for every
// section.
func ExtractSection(text string, ordinal int, meetingID string) SectionData {
	decisions := ExtractDecisions(text, ordinal, meetingID)
	tasks := ExtractTasks(text, ordinal)

	data := SectionData{
		Section: Section{
			Number:           ordinal,
			Title:            sectionTitle(ordinal),
			Summary:          Summarize(text),
			KeyPoints:        KeyPoints(text),
			RelatedDecisions: make([]string, 0, len(decisions)),
			RelatedTasks:     make([]string, 0, len(tasks)),
		},
		Decisions: decisions,
		Tasks:     tasks,
	}
	for _, d := range decisions {
		data.Section.RelatedDecisions = append(data.Section.RelatedDecisions, d.ID)
	}
	for _, t := range tasks {
		data.Section.RelatedTasks = append(data.Section.RelatedTasks, t.ID)
	}

	switch ordinal {
	case ParkingLotSection:
		data.ParkingLot = ExtractParkingLot(text)
	case RiskSection:
		data.Risks = ExtractRisks(text)
	}
	return data
}

func sectionTitle(ordinal int) string {
	if ordinal < 1 || ordinal > SectionCount {
		return ""
	}
	return SectionTitles[ordinal-1]
}

// Summarize returns the first 200 characters of the trimmed text, with an
// ellipsis when the untrimmed text is longer than that.
func Summarize(text string) string {
	summary := truncateRunes(strings.TrimSpace(text), summaryLength)
	if utf8.RuneCountInString(text) > summaryLength {
		summary += "..."
	}
	return summary
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// KeyPoints returns up to five bullet or numbered lines with their markers
// removed. Without any list lines it falls back to the first three sentences.
func KeyPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if bulletLineRegex.MatchString(line) || numberedLineRegex.MatchString(line) {
			points = append(points, listMarkerRegex.ReplaceAllString(line, ""))
		}
	}

	if len(points) == 0 {
		sentences := sentenceRegex.FindAllString(text, fallbackSentences)
		points = make([]string, 0, len(sentences))
		for _, s := range sentences {
			points = append(points, strings.TrimSpace(s))
		}
		return points
	}

	if len(points) > maxKeyPoints {
		points = points[:maxKeyPoints]
	}
	return points
}

// ExtractDecisions scans text with each decision pattern in turn. The
// sequence number runs across all patterns.
func ExtractDecisions(text string, ordinal int, meetingID string) []Decision {
	var decisions []Decision
	seq := 0
	for _, pattern := range decisionPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			seq++
			decisions = append(decisions, Decision{
				ID:            DecisionID(meetingID, seq),
				Summary:       strings.TrimSpace(match[1]),
				Context:       DefaultContext,
				ApprovedBy:    DefaultApprover,
				Impact:        LevelMedium,
				ReversalRisk:  LevelLow,
				SourceSection: ordinal,
				RelatedTasks:  []string{},
			})
		}
	}
	return decisions
}

// DecisionID formats a decision identifier as D-<meetingID>-NN.
func DecisionID(meetingID string, seq int) string {
	return fmt.Sprintf("D-%s-%02d", meetingID, seq)
}

// TaskID formats a task identifier as <section>.<seq>.
func TaskID(ordinal, seq int) string {
	return strconv.Itoa(ordinal) + "." + strconv.Itoa(seq)
}

// ExtractTasks scans text with each task pattern in turn. The sequence
// number runs across all patterns.
func ExtractTasks(text string, ordinal int) []Task {
	var tasks []Task
	seq := 0
	for _, pattern := range taskPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			seq++
			tasks = append(tasks, Task{
				ID:            TaskID(ordinal, seq),
				Description:   strings.TrimSpace(match[1]),
				Category:      CategoryFor(ordinal),
				Priority:      InferPriority(match[1]),
				Owner:         OwnerTBD,
				SourceSection: ordinal,
				Status:        StatusNotStarted,
			})
		}
	}
	return tasks
}

// InferPriority rates text High when it contains an urgency keyword, Low
// when it contains a hedging keyword, and Medium otherwise. High wins.
func InferPriority(text string) Level {
	lower := strings.ToLower(text)
	if containsAny(lower, highPriorityKeywords) {
		return LevelHigh
	}
	if containsAny(lower, lowPriorityKeywords) {
		return LevelLow
	}
	return LevelMedium
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// ExtractParkingLot finds ideas deferred to "phase 2", the "future" or "later".
func ExtractParkingLot(text string) []ParkingLotItem {
	var items []ParkingLotItem
	for _, match := range parkingLotPattern.FindAllStringSubmatch(text, -1) {
		items = append(items, ParkingLotItem{
			Idea:           strings.TrimSpace(match[1]),
			SuggestedPhase: DefaultPhase,
			RaisedBy:       DefaultRaisedBy,
		})
	}
	return items
}

// ExtractRisks finds risks, concerns, blockers and issues.
func ExtractRisks(text string) []RiskBlocker {
	var risks []RiskBlocker
	for _, match := range riskPattern.FindAllStringSubmatch(text, -1) {
		risks = append(risks, RiskBlocker{
			Risk:        strings.TrimSpace(match[1]),
			Probability: LevelMedium,
			Mitigation:  DefaultMitigation,
		})
	}
	return risks
}
