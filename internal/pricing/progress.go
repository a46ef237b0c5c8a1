package pricing

import "strings"

// ProgressInput is what the milestone ladder looks at.
type ProgressInput struct {
	ProfileComplete bool
	DocumentCount   int
	Conditions      int
	OpenConditions  int
	PropertyValue   float64
	Status          string
}

const minDocuments = 4

// Progress walks the milestone ladder and returns the percent complete and
// the current stage label.
func Progress(in ProgressInput) (int, string) {
	if !in.ProfileComplete {
		return 10, "Application Started"
	}
	score := 20

	if in.DocumentCount < minDocuments {
		return score, "Awaiting Documents"
	}
	score += 20
	stage := "Documents Submitted"

	if in.Conditions > 0 {
		if in.OpenConditions > 0 {
			return score, "Conditions Pending"
		}
		score += 10
		stage = "Conditions Cleared"
	}

	if in.PropertyValue <= 0 {
		return score, "Appraisal In Progress"
	}
	score += 20
	stage = "Appraisal Completed"

	switch normalizeStatus(in.Status) {
	case "approved", "clear_to_close":
		return 100, "Clear to Close"
	}
	return score, stage
}

func normalizeStatus(status string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(status)), " ", "_")
}
