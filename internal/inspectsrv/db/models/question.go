package models

import (
	"github.com/railcheck/railcheck/internal/inspectsrv/inscommon"
)

// Question is one checklist item of a module's question master.
type Question struct {
	QuestionID    string               `db:"question_id" json:"questionId"`
	Module        inscommon.ModuleKind `db:"module" json:"module"`
	SubcategoryID string               `db:"subcategory_id" json:"subcategoryId,omitempty"`
	Text          string               `db:"question_text" json:"text"`
	Seq           int                  `db:"seq" json:"seq"`
	Active        bool                 `db:"active" json:"active"`
}

// Subcategory groups questions within a compartmented module's checklist.
type Subcategory struct {
	SubcategoryID string               `db:"subcategory_id" json:"subcategoryId"`
	Module        inscommon.ModuleKind `db:"module" json:"module"`
	Name          string               `db:"name" json:"name"`
	Seq           int                  `db:"seq" json:"seq"`
}
