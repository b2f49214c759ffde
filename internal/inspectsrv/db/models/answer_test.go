package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railcheck/railcheck/internal/common/uuid"
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

func strptr(s string) *string { return &s }

func statusptr(s inscommon.AnswerStatus) *inscommon.AnswerStatus { return &s }

func TestApplyPatchOmittedFieldsKeepStoredValues(t *testing.T) {
	a := &InspectionAnswer{
		Status:   inscommon.AnswerStatusDeficiency,
		Reasons:  []string{"torn seat"},
		Remark:   "seat cover torn near window",
		PhotoURL: "https://photos/1.jpg",
	}

	ApplyPatch(a, AnswerPatch{Remark: strptr("seat cover torn, window side")})

	assert.Equal(t, inscommon.AnswerStatusDeficiency, a.Status)
	assert.Equal(t, []string{"torn seat"}, a.Reasons)
	assert.Equal(t, "seat cover torn, window side", a.Remark)
	assert.Equal(t, "https://photos/1.jpg", a.PhotoURL)
}

func TestApplyPatchStatusAwayFromDeficiencyClearsReasons(t *testing.T) {
	a := &InspectionAnswer{
		Status:   inscommon.AnswerStatusDeficiency,
		Reasons:  []string{"torn seat"},
		Remark:   "fixed on the spot",
		PhotoURL: "https://photos/1.jpg",
	}

	ApplyPatch(a, AnswerPatch{Status: statusptr(inscommon.AnswerStatusOK)})

	assert.Equal(t, inscommon.AnswerStatusOK, a.Status)
	assert.Nil(t, a.Reasons)
	assert.Equal(t, "fixed on the spot", a.Remark)
	assert.Equal(t, "https://photos/1.jpg", a.PhotoURL)
}

func TestApplyPatchDoesNotTouchResolution(t *testing.T) {
	a := &InspectionAnswer{
		Status:         inscommon.AnswerStatusDeficiency,
		Reasons:        []string{"loose handle"},
		Remark:         "door handle loose",
		PhotoURL:       "https://photos/2.jpg",
		Resolved:       true,
		ResolvedBy:     "INSP-9",
		ResolvedRemark: "tightened",
		AfterPhotoURL:  "https://photos/2-after.jpg",
	}

	ApplyPatch(a, AnswerPatch{Remark: strptr("handle still a bit loose")})

	assert.True(t, a.Resolved)
	assert.Equal(t, inscommon.InspectorId("INSP-9"), a.ResolvedBy)
	assert.Equal(t, "tightened", a.ResolvedRemark)
	assert.Equal(t, "https://photos/2-after.jpg", a.AfterPhotoURL)
}

func TestApplyPatchReasonsReplacedNotMerged(t *testing.T) {
	a := &InspectionAnswer{
		Status:  inscommon.AnswerStatusDeficiency,
		Reasons: []string{"old reason"},
	}

	ApplyPatch(a, AnswerPatch{Reasons: []string{"new reason", "another"}})

	assert.Equal(t, []string{"new reason", "another"}, a.Reasons)
}

func TestNewAnswerFromPatchCompartmentedKey(t *testing.T) {
	sid := uuid.New()
	key := CompartmentedKey{
		Session:     sid,
		Question:    "Q-17",
		Compartment: "C2",
		Subcategory: "SC-DOORS",
		Level:       inscommon.ActivityLevelMajor,
	}

	a := NewAnswerFromPatch(key, AnswerPatch{Status: statusptr(inscommon.AnswerStatusOK)}, "Check door locks")

	require.NotEqual(t, uuid.Nil, a.AnswerID)
	assert.Equal(t, sid, a.SessionID)
	assert.Equal(t, "Q-17", a.QuestionID)
	assert.Equal(t, "C2", a.Compartment)
	assert.Equal(t, "SC-DOORS", a.SubcategoryID)
	assert.Equal(t, inscommon.ActivityLevelMajor, a.ActivityLevel)
	assert.Equal(t, "Check door locks", a.QuestionText)
	assert.Equal(t, inscommon.AnswerStatusOK, a.Status)
}

func TestNewAnswerFromPatchSimpleKey(t *testing.T) {
	sid := uuid.New()
	a := NewAnswerFromPatch(SimpleKey{Session: sid, Question: "Q-3"}, AnswerPatch{}, "Check lights")

	assert.Equal(t, sid, a.SessionID)
	assert.Equal(t, "Q-3", a.QuestionID)
	assert.Empty(t, a.Compartment)
	assert.Empty(t, a.SubcategoryID)
	assert.Equal(t, inscommon.ActivityLevelNone, a.ActivityLevel)
	assert.False(t, a.IsAnswered())
}

func TestMissingDeficiencyFields(t *testing.T) {
	tests := []struct {
		name    string
		answer  InspectionAnswer
		missing []string
	}{
		{
			name: "complete deficiency",
			answer: InspectionAnswer{
				Status:   inscommon.AnswerStatusDeficiency,
				Reasons:  []string{"torn seat"},
				Remark:   "seat torn",
				PhotoURL: "https://photos/1.jpg",
			},
		},
		{
			name:    "all evidence missing",
			answer:  InspectionAnswer{Status: inscommon.AnswerStatusDeficiency},
			missing: []string{"reasons", "remark", "photo_url"},
		},
		{
			name: "photo missing",
			answer: InspectionAnswer{
				Status:  inscommon.AnswerStatusDeficiency,
				Reasons: []string{"torn seat"},
				Remark:  "seat torn",
			},
			missing: []string{"photo_url"},
		},
		{
			name:   "ok answer never incomplete",
			answer: InspectionAnswer{Status: inscommon.AnswerStatusOK},
		},
		{
			name:   "na answer never incomplete",
			answer: InspectionAnswer{Status: inscommon.AnswerStatusNA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, MissingDeficiencyFields(&tt.answer))
		})
	}
}

func TestAnswerPatchIsEmpty(t *testing.T) {
	assert.True(t, AnswerPatch{}.IsEmpty())
	assert.False(t, AnswerPatch{Remark: strptr("")}.IsEmpty())
	assert.False(t, AnswerPatch{Reasons: []string{}}.IsEmpty())
}
