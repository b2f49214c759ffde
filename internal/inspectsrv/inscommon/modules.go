package inscommon

import (
	"strings"
)

// ModuleKind identifies one of the five inspection workflows. Each module
// keeps its own session and answer tables; the ModuleSpec registry below is
// the single place that records the per-module storage shape so the rest of
// the service can stay generic.
type ModuleKind string

const (
	ModuleWSP           ModuleKind = "wsp"
	ModuleCommissionary ModuleKind = "commissionary"
	ModuleSickLine      ModuleKind = "sickline"
	ModuleCAI           ModuleKind = "cai"
	ModulePitLine       ModuleKind = "pitline"
)

// ModuleSpec describes how one module stores its rows and which identity-key
// shape its answers use.
type ModuleSpec struct {
	Kind          ModuleKind
	SessionTable  string
	AnswerTable   string // empty when the module records no checklist answers
	Compartmented bool   // answers are keyed per coach compartment
	Leveled       bool   // answers are keyed per Major/Minor activity level
	HasTrain      bool   // session rows carry a train number
	SkipDraft     bool   // sessions start IN_PROGRESS rather than DRAFT
}

// HasAnswers reports whether the module records checklist answers.
func (s ModuleSpec) HasAnswers() bool {
	return s.AnswerTable != ""
}

var moduleSpecs = map[ModuleKind]ModuleSpec{
	ModuleWSP: {
		Kind:          ModuleWSP,
		SessionTable:  "wsp_sessions",
		AnswerTable:   "wsp_answers",
		Compartmented: true,
		Leveled:       true,
		HasTrain:      true,
	},
	ModuleCommissionary: {
		Kind:          ModuleCommissionary,
		SessionTable:  "commissionary_sessions",
		AnswerTable:   "commissionary_answers",
		Compartmented: true,
		Leveled:       true,
		HasTrain:      true,
	},
	ModuleSickLine: {
		Kind:         ModuleSickLine,
		SessionTable: "sickline_sessions",
		AnswerTable:  "sickline_answers",
	},
	ModuleCAI: {
		Kind:         ModuleCAI,
		SessionTable: "cai_sessions",
		AnswerTable:  "cai_answers",
		SkipDraft:    true,
	},
	ModulePitLine: {
		Kind:         ModulePitLine,
		SessionTable: "pitline_sessions",
		SkipDraft:    true,
	},
}

// moduleOrder fixes the iteration order for cross-module queries.
var moduleOrder = []ModuleKind{
	ModuleWSP,
	ModuleCommissionary,
	ModuleSickLine,
	ModuleCAI,
	ModulePitLine,
}

// GetModuleSpec returns the spec for the given module kind.
// The boolean result is false for unknown kinds.
func GetModuleSpec(kind ModuleKind) (ModuleSpec, bool) {
	spec, ok := moduleSpecs[kind]
	return spec, ok
}

// ParseModuleKind parses a module kind from its string form,
// case-insensitively.
func ParseModuleKind(s string) (ModuleKind, bool) {
	kind := ModuleKind(strings.ToLower(s))
	_, ok := moduleSpecs[kind]
	return kind, ok
}

// AllModules returns the module kinds in their fixed order.
func AllModules() []ModuleKind {
	out := make([]ModuleKind, len(moduleOrder))
	copy(out, moduleOrder)
	return out
}

// AnswerModules returns the module kinds that record checklist answers.
func AnswerModules() []ModuleKind {
	var out []ModuleKind
	for _, kind := range moduleOrder {
		if moduleSpecs[kind].HasAnswers() {
			out = append(out, kind)
		}
	}
	return out
}
