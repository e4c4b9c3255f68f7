package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// Progress types shared by plan actions and project goals.
const (
	ProgressManual    = "manual"
	ProgressAutomatic = "automatic"
)

// Action and goal statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusDelayed    = "delayed"
)

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDelayed:
		return true
	}
	return false
}

func validProgress(p int) bool {
	return p >= 0 && p <= 100
}

// StrategicPlan holds the mission statement of an organization for a number
// of years. Progress is derived from its objectives.
type StrategicPlan struct {
	Base
	OrganizationID string     `gorm:"type:char(36);not null;index" json:"organization_id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Duration       int        `gorm:"not null;default:0" json:"duration"`
	StartDate      string     `gorm:"size:10" json:"start_date"`
	Status         string     `gorm:"size:32" json:"status"`
	Progress       int        `gorm:"not null;default:0" json:"progress"`
	Mission        string     `gorm:"type:text" json:"mission"`
	Vision         string     `gorm:"type:text" json:"vision"`
	Values         StringList `json:"values"`
}

func (StrategicPlan) TableName() string { return "strategic_plans" }
func (StrategicPlan) ScopeColumn() string { return "organization_id" }
func (p StrategicPlan) ScopeID() string { return p.OrganizationID }

func (p StrategicPlan) Validate() error {
	if p.OrganizationID == "" {
		return types.Validation("organization_id", "is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return types.Validation("name", "is required")
	}
	if p.Duration < 0 {
		return types.Validation("duration", "must not be negative")
	}
	if !validProgress(p.Progress) {
		return types.Validation("progress", "must be between 0 and 100")
	}
	return nil
}

func (p *StrategicPlan) ApplyDefaults() {
	if p.Status == "" {
		p.Status = "draft"
	}
	if p.Values == nil {
		p.Values = StringList{}
	}
}

// PlanObjective is one objective of a strategic plan.
type PlanObjective struct {
	Base
	PlanID      string `gorm:"type:char(36);not null;index" json:"plan_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Progress    int    `gorm:"not null;default:0" json:"progress"`
	Completed   bool   `gorm:"not null;default:false" json:"completed"`
	Status      string `gorm:"size:16" json:"status"`
}

func (PlanObjective) TableName() string { return "strategic_plan_objectives" }
func (PlanObjective) ScopeColumn() string { return "plan_id" }
func (o PlanObjective) ScopeID() string { return o.PlanID }

func (o PlanObjective) Validate() error {
	if o.PlanID == "" {
		return types.Validation("plan_id", "is required")
	}
	if strings.TrimSpace(o.Title) == "" {
		return types.Validation("title", "is required")
	}
	if !validProgress(o.Progress) {
		return types.Validation("progress", "must be between 0 and 100")
	}
	if !validStatus(o.Status) {
		return types.Validation("status", "must be pending, in_progress, completed or delayed")
	}
	return nil
}

func (o *PlanObjective) ApplyDefaults() {
	if o.Status == "" {
		o.Status = StatusPending
	}
}

// PlanAction belongs to an objective. With automatic progress, Progress is
// recomputed from the action's scope items.
type PlanAction struct {
	Base
	ObjectiveID       string `gorm:"type:char(36);not null;index" json:"objective_id"`
	Title             string `gorm:"size:255;not null" json:"title"`
	Description       string `gorm:"type:text" json:"description"`
	ProgressType      string `gorm:"size:16;not null" json:"progress_type"`
	Progress          int    `gorm:"not null;default:0" json:"progress"`
	ResponsiblePerson string `gorm:"size:255" json:"responsible_person"`
	DueDate           string `gorm:"size:10" json:"due_date"`
	Status            string `gorm:"size:16;not null" json:"status"`
}

func (PlanAction) TableName() string { return "strategic_plan_actions" }
func (PlanAction) ScopeColumn() string { return "objective_id" }
func (a PlanAction) ScopeID() string { return a.ObjectiveID }

func (a PlanAction) Validate() error {
	if a.ObjectiveID == "" {
		return types.Validation("objective_id", "is required")
	}
	if strings.TrimSpace(a.Title) == "" {
		return types.Validation("title", "is required")
	}
	if a.ProgressType != ProgressManual && a.ProgressType != ProgressAutomatic {
		return types.Validation("progress_type", "must be manual or automatic")
	}
	if !validProgress(a.Progress) {
		return types.Validation("progress", "must be between 0 and 100")
	}
	if !validStatus(a.Status) {
		return types.Validation("status", "must be pending, in_progress, completed or delayed")
	}
	return nil
}

func (a *PlanAction) ApplyDefaults() {
	if a.ProgressType == "" {
		a.ProgressType = ProgressManual
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
}

// ScopeItem is one physical-scope line item: a quantity of some service
// to be delivered, with the amount delivered so far.
type ScopeItem struct {
	ServiceType     string  `gorm:"size:255;not null" json:"service_type"`
	TargetQuantity  float64 `gorm:"not null;default:0" json:"target_quantity"`
	CurrentQuantity float64 `gorm:"not null;default:0" json:"current_quantity"`
	Unit            string  `gorm:"size:32" json:"unit"`
}

// Item returns the line item itself; embedding rows expose it through
// promotion.
func (s ScopeItem) Item() ScopeItem { return s }

func (s ScopeItem) validate() error {
	if strings.TrimSpace(s.ServiceType) == "" {
		return types.Validation("service_type", "is required")
	}
	if s.TargetQuantity < 0 {
		return types.Validation("target_quantity", "must not be negative")
	}
	if s.CurrentQuantity < 0 {
		return types.Validation("current_quantity", "must not be negative")
	}
	return nil
}

// ActionScope is a scope item of a plan action.
type ActionScope struct {
	Base
	ActionID string `gorm:"type:char(36);not null;index" json:"action_id"`
	ScopeItem
}

func (ActionScope) TableName() string { return "strategic_plan_action_scopes" }
func (ActionScope) ScopeColumn() string { return "action_id" }
func (s ActionScope) ScopeID() string { return s.ActionID }

func (s ActionScope) Validate() error {
	if s.ActionID == "" {
		return types.Validation("action_id", "is required")
	}
	return s.ScopeItem.validate()
}
