package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// Kanban columns. The board has a fixed set.
const (
	ColumnTodo       = "todo"
	ColumnInProgress = "inprogress"
	ColumnReview     = "review"
	ColumnDone       = "done"
)

// Columns lists the board columns in display order.
var Columns = []string{ColumnTodo, ColumnInProgress, ColumnReview, ColumnDone}

// Task priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// IsColumn reports whether id names a board column.
func IsColumn(id string) bool {
	for _, c := range Columns {
		if c == id {
			return true
		}
	}
	return false
}

// Task is a Kanban card.
type Task struct {
	Base
	OrganizationID string     `gorm:"type:char(36);not null;index" json:"organization_id"`
	ColumnID       string     `gorm:"size:32;not null;index" json:"column_id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Assignee       string     `gorm:"size:255" json:"assignee"`
	DueDate        string     `gorm:"size:10" json:"due_date"`
	Priority       string     `gorm:"size:8;not null" json:"priority"`
	Labels         StringList `json:"labels"`
	CreatedBy      string     `gorm:"size:36" json:"created_by"`
}

func (Task) TableName() string { return "tasks" }
func (Task) ScopeColumn() string { return "organization_id" }
func (t Task) ScopeID() string { return t.OrganizationID }

func (t Task) Validate() error {
	if t.OrganizationID == "" {
		return types.Validation("organization_id", "is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return types.Validation("title", "is required")
	}
	if !IsColumn(t.ColumnID) {
		return types.Validation("column_id", "is not a board column")
	}
	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return types.Validation("priority", "must be high, medium or low")
	}
	return nil
}

func (t *Task) ApplyDefaults() {
	if t.ColumnID == "" {
		t.ColumnID = ColumnTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Labels == nil {
		t.Labels = StringList{}
	}
}

func (t *Task) Stamp(userID string) { t.CreatedBy = userID }
func (Task) StampColumn() string { return "created_by" }
