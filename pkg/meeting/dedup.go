package meeting

import "strings"

// Similarity is the Jaccard index of the lower-cased whitespace-separated
// word sets of a and b. Two empty descriptions have similarity 0.
func Similarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	union := len(wordsA)
	intersection := 0
	for w := range wordsB {
		if _, ok := wordsA[w]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// CheckDuplicates compares every new task against the full existing-task
// snapshot and returns one check per task, in task order. The first
// existing task reaching the maximum similarity wins ties.
func CheckDuplicates(tasks []Task, existing []ExistingTask) []DuplicateCheck {
	checks := make([]DuplicateCheck, 0, len(tasks))
	for _, task := range tasks {
		best := 0.0
		bestID := ""
		for _, e := range existing {
			if s := Similarity(task.Description, e.Description); s > best {
				best = s
				bestID = e.ID
			}
		}

		check := DuplicateCheck{
			TaskID:      task.ID,
			Similarity:  best,
			IsDuplicate: best > DuplicateThreshold,
		}
		if check.IsDuplicate {
			check.SimilarTo = bestID
		}
		checks = append(checks, check)
	}
	return checks
}
