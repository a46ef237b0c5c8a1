package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	cases := []struct {
		name      string
		in        ProgressInput
		wantPct   int
		wantStage string
	}{
		{name: "incomplete intake", in: ProgressInput{}, wantPct: 10, wantStage: "Application Started"},
		{name: "awaiting documents", in: ProgressInput{ProfileComplete: true, DocumentCount: 3}, wantPct: 20, wantStage: "Awaiting Documents"},
		{name: "open conditions", in: ProgressInput{ProfileComplete: true, DocumentCount: 4, Conditions: 2, OpenConditions: 1}, wantPct: 40, wantStage: "Conditions Pending"},
		{name: "appraisal outstanding", in: ProgressInput{ProfileComplete: true, DocumentCount: 5}, wantPct: 40, wantStage: "Appraisal In Progress"},
		{name: "appraisal done", in: ProgressInput{ProfileComplete: true, DocumentCount: 5, PropertyValue: 300000, Status: "In Review"}, wantPct: 60, wantStage: "Appraisal Completed"},
		{name: "cleared conditions", in: ProgressInput{ProfileComplete: true, DocumentCount: 5, Conditions: 2, PropertyValue: 300000}, wantPct: 70, wantStage: "Appraisal Completed"},
		{name: "approved", in: ProgressInput{ProfileComplete: true, DocumentCount: 5, PropertyValue: 300000, Status: "Approved"}, wantPct: 100, wantStage: "Clear to Close"},
		{name: "clear to close label", in: ProgressInput{ProfileComplete: true, DocumentCount: 5, PropertyValue: 300000, Status: "Clear To Close"}, wantPct: 100, wantStage: "Clear to Close"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pct, stage := Progress(tc.in)
			assert.Equal(t, tc.wantPct, pct)
			assert.Equal(t, tc.wantStage, stage)
		})
	}
}
