// Package progress computes answer coverage and compliance for inspection
// sessions. Everything here is arithmetic over rows the db layer returns;
// the functions are pure so the same math serves the API and the reports.
package progress

import (
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// Compliance returns the percentage of applicable answers that passed.
// NA answers are not applicable and do not count either way. A session with
// no applicable answers is vacuously compliant at 100.
func Compliance(answers []*models.InspectionAnswer) float64 {
	applicable := 0
	passed := 0
	for _, a := range answers {
		switch a.Status {
		case inscommon.AnswerStatusOK:
			applicable++
			passed++
		case inscommon.AnswerStatusDeficiency:
			applicable++
		}
	}
	if applicable == 0 {
		return 100
	}
	return float64(passed) / float64(applicable) * 100
}

// CountDeficiencies returns total and resolved deficiency counts.
func CountDeficiencies(answers []*models.InspectionAnswer) (total, resolved int) {
	for _, a := range answers {
		if a.Status == inscommon.AnswerStatusDeficiency {
			total++
			if a.Resolved {
				resolved++
			}
		}
	}
	return total, resolved
}
