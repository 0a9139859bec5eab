package meeting

import (
	"fmt"
	"math"
	"strings"
)

// DefaultReviewer is the reviewer named in the review-actions header.
const DefaultReviewer = "Glen"

// ApprovedCheckbox is the literal a reviewer ticks to approve the document.
const ApprovedCheckbox = "☐ APPROVED - Commit to Control Center"

var rule = strings.Repeat("═", 70)

// ReviewRenderer renders extraction results as plain-text review documents.
// The layout is consumed by people and by tooling that searches the text,
// so output must stay byte-for-byte stable for a given result.
type ReviewRenderer struct {
	// Reviewer is named in the review-actions header. Empty means DefaultReviewer.
	Reviewer string
}

// RenderReview renders result with the default reviewer.
func RenderReview(result *ExtractionResult) string {
	return ReviewRenderer{}.Render(result)
}

// Render returns the review document for result.
func (r ReviewRenderer) Render(result *ExtractionResult) string {
	var b strings.Builder
	md := result.Metadata

	fmt.Fprintf(&b, "PENDING REVIEW: %s Meeting Extraction\n\n", md.MeetingDate)
	header(&b, "MEETING METADATA")
	fmt.Fprintf(&b, "Date: %s\n", md.MeetingDate)
	fmt.Fprintf(&b, "Meeting ID: %s\n", md.MeetingID)
	fmt.Fprintf(&b, "Meeting Type: %s\n", md.MeetingType)
	fmt.Fprintf(&b, "Attendees: %s\n", strings.Join(md.Attendees, ", "))
	fmt.Fprintf(&b, "Fathom Link: %s\n", orDefault(md.FathomLink, "Not provided"))
	fmt.Fprintf(&b, "Transcript Word Count: %d words\n", md.WordCount)
	fmt.Fprintf(&b, "Processing Date: %s\n\n", md.ProcessingDate)

	for _, s := range result.Sections {
		header(&b, fmt.Sprintf("SECTION %d: %s", s.Number, strings.ToUpper(s.Title)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Discussion Summary:\n%s\n\n", s.Summary)
		b.WriteString("Key Points:\n")
		for _, p := range s.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", p)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "Related Decisions: %s\n", joinOrNone(s.RelatedDecisions))
		fmt.Fprintf(&b, "Related Tasks: %s\n\n", joinOrNone(s.RelatedTasks))
	}

	r.writeDecisions(&b, result.Decisions)
	r.writeTasks(&b, result)
	r.writeParkingLot(&b, result.ParkingLot)
	r.writeRisks(&b, result.Risks)
	r.writeActions(&b, result)

	header(&b, "APPROVAL")
	b.WriteString("\n")
	b.WriteString(ApprovedCheckbox + "\n\n")
	b.WriteString("Approved By: _______________ Date: ___________\n\n")
	b.WriteString(rule + "\n")

	return b.String()
}

func (r ReviewRenderer) writeDecisions(b *strings.Builder, decisions []Decision) {
	header(b, "EXTRACTED DECISIONS")
	b.WriteString("\n")
	if len(decisions) == 0 {
		b.WriteString("No explicit decisions identified in transcript.\n\n")
		return
	}
	for _, d := range decisions {
		fmt.Fprintf(b, "Decision %s:\n", d.ID)
		fmt.Fprintf(b, "├─ Decision: %s\n", d.Summary)
		fmt.Fprintf(b, "├─ Context: %s\n", d.Context)
		fmt.Fprintf(b, "├─ Approved By: %s\n", d.ApprovedBy)
		fmt.Fprintf(b, "├─ Impact: %s\n", d.Impact)
		fmt.Fprintf(b, "├─ Reversal Risk: %s\n", d.ReversalRisk)
		fmt.Fprintf(b, "├─ Source Section: %d\n", d.SourceSection)
		fmt.Fprintf(b, "└─ Related Tasks: %s\n\n", joinOrNone(d.RelatedTasks))
	}
}

func (r ReviewRenderer) writeTasks(b *strings.Builder, result *ExtractionResult) {
	header(b, "EXTRACTED TASKS (NEW)")
	b.WriteString("\n")
	if len(result.Tasks) == 0 {
		b.WriteString("No new tasks identified in transcript.\n\n")
		return
	}

	checks := make(map[string]DuplicateCheck, len(result.DuplicateChecks))
	for _, dc := range result.DuplicateChecks {
		if _, ok := checks[dc.TaskID]; !ok {
			checks[dc.TaskID] = dc
		}
	}

	for _, t := range result.Tasks {
		fmt.Fprintf(b, "Task %s:\n", t.ID)
		fmt.Fprintf(b, "├─ Description: %s\n", t.Description)
		fmt.Fprintf(b, "├─ Category: %s\n", t.Category)
		fmt.Fprintf(b, "├─ Priority: %s\n", t.Priority)
		fmt.Fprintf(b, "├─ Owner: %s\n", t.Owner)
		fmt.Fprintf(b, "├─ Source: Meeting %s, Section %d\n", result.Metadata.MeetingID, t.SourceSection)
		fmt.Fprintf(b, "├─ Linked Decision: %s\n", orDefault(t.LinkedDecisionID, "None"))
		fmt.Fprintf(b, "└─ Status: %s\n\n", t.Status)

		dc, ok := checks[t.ID]
		if !ok {
			continue
		}
		if dc.IsDuplicate && dc.SimilarTo != "" {
			b.WriteString("⚠️ DUPLICATE CHECK:\n")
			fmt.Fprintf(b, "   Similar to existing Task %s\n", dc.SimilarTo)
			fmt.Fprintf(b, "   Confidence: %d%%\n", Percent(dc.Similarity))
			b.WriteString("   → REVIEW REQUIRED: Keep separate or merge?\n\n")
		} else {
			b.WriteString("✓ No similar task found\n\n")
		}
	}
}

func (r ReviewRenderer) writeParkingLot(b *strings.Builder, items []ParkingLotItem) {
	header(b, "PARKING LOT ITEMS IDENTIFIED")
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString("None identified in this meeting.\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "• %s - %s\n", item.Idea, item.SuggestedPhase)
	}
	b.WriteString("\n")
}

func (r ReviewRenderer) writeRisks(b *strings.Builder, risks []RiskBlocker) {
	header(b, "RISKS/BLOCKERS IDENTIFIED")
	b.WriteString("\n")
	if len(risks) == 0 {
		b.WriteString("None identified in this meeting.\n\n")
		return
	}
	for _, risk := range risks {
		fmt.Fprintf(b, "• %s - Probability: %s", risk.Risk, risk.Probability)
		if risk.Mitigation != "" {
			fmt.Fprintf(b, ", Mitigation: %s", risk.Mitigation)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (r ReviewRenderer) writeActions(b *strings.Builder, result *ExtractionResult) {
	reviewer := orDefault(r.Reviewer, DefaultReviewer)
	header(b, strings.ToUpper(reviewer)+"'S REVIEW ACTIONS")
	b.WriteString("\n")
	b.WriteString("Please review and complete:\n\n")
	b.WriteString("☐ Review all extracted decisions - accurate? (Y/N)\n")
	b.WriteString("   Comments: ___________________\n\n")
	b.WriteString("☐ Review all extracted tasks - correct? (Y/N)\n")
	b.WriteString("   Comments: ___________________\n\n")

	b.WriteString("☐ Resolve duplicate flags:\n")
	for _, dc := range result.Duplicates() {
		fmt.Fprintf(b, "   Task %s: ☐ Keep separate ☐ Merge with %s ☐ Delete\n", dc.TaskID, dc.SimilarTo)
	}
	b.WriteString("\n")

	b.WriteString("☐ Assign owners to [TBD] tasks:\n")
	for _, t := range result.Tasks {
		if t.Owner == OwnerTBD {
			fmt.Fprintf(b, "   Task %s: Owner = _______________\n", t.ID)
		}
	}
	b.WriteString("\n")

	b.WriteString("☐ Any corrections needed?\n")
	b.WriteString("   ____________________________________\n\n")
}

// Percent rounds a similarity in [0,1] to the nearest whole percent, with
// halves rounded up.
func Percent(similarity float64) int {
	return int(math.Floor(similarity*100 + 0.5))
}

func header(b *strings.Builder, title string) {
	b.WriteString(rule + "\n")
	b.WriteString(title + "\n")
	b.WriteString(rule + "\n")
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "None"
	}
	return strings.Join(ids, ", ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
