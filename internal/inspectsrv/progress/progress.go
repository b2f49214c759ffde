package progress

import (
	"context"
	"math"

	"github.com/railcheck/railcheck/internal/common/apperrors"
	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/db"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// AreaStatus is the coverage of one compartment at one activity level. An
// area is complete only when every question is answered and no deficiency
// is left unresolved; an area expecting zero questions is vacuously
// complete.
type AreaStatus struct {
	Compartment   string                  `json:"compartment"`
	ActivityLevel inscommon.ActivityLevel `json:"activityLevel,omitempty"`
	Answered      int                     `json:"answered"`
	Total         int                     `json:"total"`
	Deficiencies  int                     `json:"deficiencies"`
	Pending       int                     `json:"pending"`
	Complete      bool                    `json:"complete"`
}

// SessionProgress is the full coverage picture of a session.
type SessionProgress struct {
	SessionID    string                  `json:"sessionId"`
	Module       inscommon.ModuleKind    `json:"module"`
	Status       inscommon.SessionStatus `json:"status"`
	Answered     int                     `json:"answered"`
	Total        int                     `json:"total"`
	Deficiencies int                     `json:"deficiencies"`
	Resolved     int                     `json:"resolved"`
	Pending      int                     `json:"pending"`
	Compliance   float64                 `json:"compliance"`
	Complete     bool                    `json:"complete"`
	Areas        []AreaStatus            `json:"areas,omitempty"`
}

// SessionSummary is the compact rollup shown on session lists. Percentage is
// completed areas over total areas rounded to a whole number; compliance
// carries the exact value.
type SessionSummary struct {
	SessionID      string                  `json:"sessionId"`
	Module         inscommon.ModuleKind    `json:"module"`
	Status         inscommon.SessionStatus `json:"status"`
	Answered       int                     `json:"answered"`
	Total          int                     `json:"total"`
	Deficiencies   int                     `json:"deficiencies"`
	Pending        int                     `json:"pending"`
	CompletedAreas int                     `json:"completedAreas"`
	TotalAreas     int                     `json:"totalAreas"`
	Percentage     float64                 `json:"percentage"`
	Compliance     float64                 `json:"compliance"`
}

// activityLevels lists the inspection passes of a leveled module.
var activityLevels = []inscommon.ActivityLevel{
	inscommon.ActivityLevelMajor,
	inscommon.ActivityLevelMinor,
}

// Compute builds the progress picture from a session, its answers, the
// module's question master and the coach. The coach may be nil for modules
// that do not answer per compartment; its compartments define the areas
// for modules that do.
func Compute(session *models.InspectionSession, answers []*models.InspectionAnswer, questions []*models.Question, coach *models.Coach) *SessionProgress {
	spec, _ := inscommon.GetModuleSpec(session.Module)

	p := &SessionProgress{
		SessionID: session.SessionID.String(),
		Module:    session.Module,
		Status:    session.Status,
		Answered:  len(answers),
	}
	p.Deficiencies, p.Resolved = CountDeficiencies(answers)
	p.Pending = p.Deficiencies - p.Resolved
	p.Compliance = Compliance(answers)

	if !spec.Compartmented {
		p.Total = len(questions)
		p.Complete = p.Answered >= p.Total && p.Pending == 0
		return p
	}

	var compartments []string
	if coach != nil {
		compartments = coach.Compartments
	}

	levels := activityLevels
	if !spec.Leveled {
		levels = []inscommon.ActivityLevel{inscommon.ActivityLevelNone}
	}

	type areaKey struct {
		compartment string
		level       inscommon.ActivityLevel
	}
	byArea := make(map[areaKey][]*models.InspectionAnswer)
	for _, a := range answers {
		k := areaKey{a.Compartment, a.ActivityLevel}
		byArea[k] = append(byArea[k], a)
	}

	perArea := len(questions)
	p.Total = perArea * len(compartments) * len(levels)
	p.Complete = true

	for _, compartment := range compartments {
		for _, level := range levels {
			area := AreaStatus{
				Compartment:   compartment,
				ActivityLevel: level,
				Total:         perArea,
			}
			rows := byArea[areaKey{compartment, level}]
			area.Answered = len(rows)
			total, resolved := CountDeficiencies(rows)
			area.Deficiencies = total
			area.Pending = total - resolved
			area.Complete = area.Answered >= perArea && area.Pending == 0
			if !area.Complete {
				p.Complete = false
			}
			p.Areas = append(p.Areas, area)
		}
	}

	return p
}

// Summarize condenses a progress picture into its list form. A module
// without compartments counts as a single area.
func Summarize(p *SessionProgress) *SessionSummary {
	s := &SessionSummary{
		SessionID:    p.SessionID,
		Module:       p.Module,
		Status:       p.Status,
		Answered:     p.Answered,
		Total:        p.Total,
		Deficiencies: p.Deficiencies,
		Pending:      p.Pending,
		Compliance:   p.Compliance,
	}

	if len(p.Areas) == 0 {
		s.TotalAreas = 1
		if p.Complete {
			s.CompletedAreas = 1
		}
	} else {
		s.TotalAreas = len(p.Areas)
		for _, area := range p.Areas {
			if area.Complete {
				s.CompletedAreas++
			}
		}
	}

	if s.TotalAreas > 0 {
		s.Percentage = math.Round(float64(s.CompletedAreas) / float64(s.TotalAreas) * 100)
	}
	return s
}

// GetSessionProgress assembles the progress picture for a session. A
// non-empty subcategory narrows the picture to that slice of the checklist.
func GetSessionProgress(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID, subcategory string) (*SessionProgress, apperrors.Error) {
	spec, ok := inscommon.GetModuleSpec(module)
	if !ok {
		return nil, ErrUnknownModule.Msg(string(module))
	}

	session, err := db.DB(ctx).GetSession(ctx, module, sessionID)
	if err != nil {
		return nil, err
	}

	var answers []*models.InspectionAnswer
	var questions []*models.Question
	if spec.HasAnswers() {
		answers, err = db.DB(ctx).ListSessionAnswers(ctx, module, sessionID)
		if err != nil {
			return nil, err
		}
		questions, err = db.DB(ctx).ListQuestions(ctx, module)
		if err != nil {
			return nil, err
		}
		if subcategory != "" {
			answers, questions = filterBySubcategory(spec, answers, questions, subcategory)
		}
	}

	var coach *models.Coach
	if spec.Compartmented {
		coach, err = db.DB(ctx).GetCoach(ctx, session.CoachNumber)
		if err != nil {
			return nil, err
		}
	}

	return Compute(session, answers, questions, coach), nil
}

// filterBySubcategory narrows answers and questions to one subcategory.
// Compartmented answers carry the subcategory themselves; simple answers are
// matched through their question.
func filterBySubcategory(spec inscommon.ModuleSpec, answers []*models.InspectionAnswer, questions []*models.Question, subcategory string) ([]*models.InspectionAnswer, []*models.Question) {
	inSub := make(map[string]bool, len(questions))
	filteredQs := make([]*models.Question, 0, len(questions))
	for _, q := range questions {
		if q.SubcategoryID == subcategory {
			inSub[q.QuestionID] = true
			filteredQs = append(filteredQs, q)
		}
	}

	filteredAs := make([]*models.InspectionAnswer, 0, len(answers))
	for _, a := range answers {
		if spec.Compartmented {
			if a.SubcategoryID == subcategory {
				filteredAs = append(filteredAs, a)
			}
		} else if inSub[a.QuestionID] {
			filteredAs = append(filteredAs, a)
		}
	}
	return filteredAs, filteredQs
}

// GetSessionSummary assembles the compact rollup for a session.
func GetSessionSummary(ctx context.Context, module inscommon.ModuleKind, sessionID uuid.UUID) (*SessionSummary, apperrors.Error) {
	p, err := GetSessionProgress(ctx, module, sessionID, "")
	if err != nil {
		return nil, err
	}
	return Summarize(p), nil
}
