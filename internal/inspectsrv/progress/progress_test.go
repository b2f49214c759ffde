package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/db/models"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

func answer(status inscommon.AnswerStatus) *models.InspectionAnswer {
	return &models.InspectionAnswer{Status: status}
}

func areaAnswer(status inscommon.AnswerStatus, compartment string, level inscommon.ActivityLevel) *models.InspectionAnswer {
	a := answer(status)
	a.Compartment = compartment
	a.ActivityLevel = level
	return a
}

func TestCompliance(t *testing.T) {
	tests := []struct {
		name     string
		answers  []*models.InspectionAnswer
		expected float64
	}{
		{"no answers", nil, 100},
		{"all ok", []*models.InspectionAnswer{answer("OK"), answer("OK")}, 100},
		{"all deficiency", []*models.InspectionAnswer{answer("DEFICIENCY")}, 0},
		{"half", []*models.InspectionAnswer{answer("OK"), answer("DEFICIENCY")}, 50},
		{"na excluded", []*models.InspectionAnswer{answer("OK"), answer("NA"), answer("NA")}, 100},
		{"all na", []*models.InspectionAnswer{answer("NA"), answer("NA")}, 100},
		{"two thirds", []*models.InspectionAnswer{answer("OK"), answer("OK"), answer("DEFICIENCY"), answer("NA")}, 100.0 * 2 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Compliance(tt.answers), 1e-9)
		})
	}
}

func TestCountDeficiencies(t *testing.T) {
	resolved := answer("DEFICIENCY")
	resolved.Resolved = true

	total, done := CountDeficiencies([]*models.InspectionAnswer{
		answer("OK"), answer("DEFICIENCY"), resolved, answer("NA"),
	})
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, done)
}

func simpleSession(module inscommon.ModuleKind) *models.InspectionSession {
	return &models.InspectionSession{
		SessionID: uuid.New(),
		Module:    module,
		Status:    inscommon.SessionStatusInProgress,
	}
}

func questionMaster(n int) []*models.Question {
	qs := make([]*models.Question, n)
	for i := range qs {
		qs[i] = &models.Question{QuestionID: "Q" + string(rune('A'+i))}
	}
	return qs
}

func TestComputeSimpleModule(t *testing.T) {
	session := simpleSession(inscommon.ModuleSickLine)
	answers := []*models.InspectionAnswer{answer("OK"), answer("DEFICIENCY")}

	p := Compute(session, answers, questionMaster(3), nil)
	require.NotNil(t, p)

	assert.Equal(t, 2, p.Answered)
	assert.Equal(t, 3, p.Total)
	assert.False(t, p.Complete)
	assert.Equal(t, 1, p.Deficiencies)
	assert.InDelta(t, 50.0, p.Compliance, 1e-9)
	assert.Empty(t, p.Areas)

	// all answered, but the deficiency is still open
	answers = append(answers, answer("NA"))
	p = Compute(session, answers, questionMaster(3), nil)
	assert.False(t, p.Complete)
	assert.Equal(t, 1, p.Pending)
	assert.InDelta(t, 50.0, p.Compliance, 1e-9)

	answers[1].Resolved = true
	p = Compute(session, answers, questionMaster(3), nil)
	assert.True(t, p.Complete)
	assert.Equal(t, 0, p.Pending)
}

func TestComputeCompartmentedModule(t *testing.T) {
	session := simpleSession(inscommon.ModuleWSP)
	coach := &models.Coach{Compartments: []string{"C1", "C2"}}

	fixed := areaAnswer("DEFICIENCY", "C1", inscommon.ActivityLevelMajor)
	fixed.Resolved = true
	answers := []*models.InspectionAnswer{
		areaAnswer("OK", "C1", inscommon.ActivityLevelMajor),
		fixed,
		areaAnswer("OK", "C1", inscommon.ActivityLevelMinor),
	}

	p := Compute(session, answers, questionMaster(2), coach)
	require.NotNil(t, p)

	// 2 questions x 2 compartments x 2 levels
	assert.Equal(t, 8, p.Total)
	assert.Equal(t, 3, p.Answered)
	assert.False(t, p.Complete)
	require.Len(t, p.Areas, 4)

	byArea := map[string]AreaStatus{}
	for _, a := range p.Areas {
		byArea[a.Compartment+"/"+string(a.ActivityLevel)] = a
	}

	c1major := byArea["C1/MAJOR"]
	assert.Equal(t, 2, c1major.Answered)
	assert.Equal(t, 1, c1major.Deficiencies)
	assert.Equal(t, 0, c1major.Pending)
	assert.True(t, c1major.Complete)

	c1minor := byArea["C1/MINOR"]
	assert.Equal(t, 1, c1minor.Answered)
	assert.False(t, c1minor.Complete)

	c2major := byArea["C2/MAJOR"]
	assert.Equal(t, 0, c2major.Answered)
	assert.False(t, c2major.Complete)
}

func TestComputeZeroExpectedIsVacuouslyComplete(t *testing.T) {
	// Empty question master, single-pass module.
	session := simpleSession(inscommon.ModuleSickLine)
	p := Compute(session, nil, nil, nil)
	assert.Equal(t, 0, p.Total)
	assert.True(t, p.Complete)

	// Empty question master, compartmented module: every area expects zero
	// questions and is satisfied without answers.
	session = simpleSession(inscommon.ModuleWSP)
	coach := &models.Coach{Compartments: []string{"C1"}}
	p = Compute(session, nil, nil, coach)
	require.Len(t, p.Areas, 2)
	for _, area := range p.Areas {
		assert.True(t, area.Complete, "area %s/%s", area.Compartment, area.ActivityLevel)
	}
	assert.True(t, p.Complete)
}

func TestSummarize(t *testing.T) {
	session := simpleSession(inscommon.ModuleSickLine)
	answers := []*models.InspectionAnswer{
		answer("OK"), answer("OK"), answer("DEFICIENCY"),
	}

	p := Compute(session, answers, questionMaster(3), nil)
	s := Summarize(p)

	// compliance stays exact; the completion percentage is what rounds
	assert.InDelta(t, 100.0*2/3, s.Compliance, 1e-9)
	assert.Equal(t, 1, s.Deficiencies)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 3, s.Answered)
	assert.Equal(t, 3, s.Total)

	// a simple module is one area, incomplete while the deficiency is open
	assert.Equal(t, 1, s.TotalAreas)
	assert.Equal(t, 0, s.CompletedAreas)
	assert.InDelta(t, 0.0, s.Percentage, 1e-9)

	answers[2].Resolved = true
	s = Summarize(Compute(session, answers, questionMaster(3), nil))
	assert.Equal(t, 1, s.CompletedAreas)
	assert.InDelta(t, 100.0, s.Percentage, 1e-9)
}

func TestSummarizeAreaPercentage(t *testing.T) {
	session := simpleSession(inscommon.ModuleWSP)
	coach := &models.Coach{Compartments: []string{"C1", "C2", "C3"}}

	// complete one of six areas
	answers := []*models.InspectionAnswer{
		areaAnswer("OK", "C1", inscommon.ActivityLevelMajor),
	}

	s := Summarize(Compute(session, answers, questionMaster(1), coach))
	assert.Equal(t, 6, s.TotalAreas)
	assert.Equal(t, 1, s.CompletedAreas)
	assert.InDelta(t, 17.0, s.Percentage, 1e-9)
}

func TestFilterBySubcategory(t *testing.T) {
	qs := []*models.Question{
		{QuestionID: "QA", SubcategoryID: "DOORS"},
		{QuestionID: "QB", SubcategoryID: "SEATS"},
	}

	// compartmented answers carry the subcategory themselves
	wsp, ok := inscommon.GetModuleSpec(inscommon.ModuleWSP)
	require.True(t, ok)
	a1 := areaAnswer("OK", "C1", inscommon.ActivityLevelMajor)
	a1.SubcategoryID = "DOORS"
	a2 := areaAnswer("OK", "C1", inscommon.ActivityLevelMajor)
	a2.SubcategoryID = "SEATS"

	fa, fq := filterBySubcategory(wsp, []*models.InspectionAnswer{a1, a2}, qs, "DOORS")
	require.Len(t, fq, 1)
	require.Len(t, fa, 1)
	assert.Equal(t, "DOORS", fa[0].SubcategoryID)

	// simple answers are matched through their question
	sick, ok := inscommon.GetModuleSpec(inscommon.ModuleSickLine)
	require.True(t, ok)
	b1 := answer("OK")
	b1.QuestionID = "QA"
	b2 := answer("OK")
	b2.QuestionID = "QB"

	fa, fq = filterBySubcategory(sick, []*models.InspectionAnswer{b1, b2}, qs, "SEATS")
	require.Len(t, fq, 1)
	require.Len(t, fa, 1)
	assert.Equal(t, "QB", fa[0].QuestionID)
}

func TestSummarizePendingExcludesResolved(t *testing.T) {
	resolved := answer("DEFICIENCY")
	resolved.Resolved = true

	session := simpleSession(inscommon.ModuleCAI)
	p := Compute(session, []*models.InspectionAnswer{resolved, answer("DEFICIENCY")}, questionMaster(2), nil)
	s := Summarize(p)

	assert.Equal(t, 2, s.Deficiencies)
	assert.Equal(t, 1, s.Pending)
}
