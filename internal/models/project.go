package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// Project is an archival treatment project with goals and physical scope.
type Project struct {
	Base
	OrganizationID string `gorm:"type:char(36);not null;index" json:"organization_id"`
	Name           string `gorm:"size:255;not null" json:"name"`
	Description    string `gorm:"type:text" json:"description"`
	Status         string `gorm:"size:16;not null" json:"status"`
	StartDate      string `gorm:"size:10" json:"start_date"`
	EndDate        string `gorm:"size:10" json:"end_date"`
	Progress       int    `gorm:"not null;default:0" json:"progress"`
	CreatedBy      string `gorm:"size:36" json:"created_by"`
}

func (Project) TableName() string { return "projects" }
func (Project) ScopeColumn() string { return "organization_id" }
func (p Project) ScopeID() string { return p.OrganizationID }

func (p Project) Validate() error {
	if p.OrganizationID == "" {
		return types.Validation("organization_id", "is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return types.Validation("name", "is required")
	}
	if !validProgress(p.Progress) {
		return types.Validation("progress", "must be between 0 and 100")
	}
	if !validStatus(p.Status) {
		return types.Validation("status", "must be pending, in_progress, completed or delayed")
	}
	return nil
}

func (p *Project) ApplyDefaults() {
	if p.Status == "" {
		p.Status = StatusPending
	}
}

func (p *Project) Stamp(userID string) { p.CreatedBy = userID }
func (Project) StampColumn() string { return "created_by" }

// Goal is a project goal. Automatic goals derive Progress from GoalScope.
type Goal struct {
	Base
	ProjectID    string `gorm:"type:char(36);not null;index" json:"project_id"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	ProgressType string `gorm:"size:16;not null" json:"progress_type"`
	Progress     int    `gorm:"not null;default:0" json:"progress"`
	Status       string `gorm:"size:16;not null" json:"status"`
}

func (Goal) TableName() string { return "project_goals" }
func (Goal) ScopeColumn() string { return "project_id" }
func (g Goal) ScopeID() string { return g.ProjectID }

func (g Goal) Validate() error {
	if g.ProjectID == "" {
		return types.Validation("project_id", "is required")
	}
	if strings.TrimSpace(g.Title) == "" {
		return types.Validation("title", "is required")
	}
	if g.ProgressType != ProgressManual && g.ProgressType != ProgressAutomatic {
		return types.Validation("progress_type", "must be manual or automatic")
	}
	if !validProgress(g.Progress) {
		return types.Validation("progress", "must be between 0 and 100")
	}
	if !validStatus(g.Status) {
		return types.Validation("status", "must be pending, in_progress, completed or delayed")
	}
	return nil
}

func (g *Goal) ApplyDefaults() {
	if g.ProgressType == "" {
		g.ProgressType = ProgressManual
	}
	if g.Status == "" {
		g.Status = StatusPending
	}
}

// GoalScope is a physical-scope line item of a project goal.
type GoalScope struct {
	Base
	GoalID string `gorm:"type:char(36);not null;index" json:"goal_id"`
	ScopeItem
}

func (GoalScope) TableName() string { return "project_goal_scopes" }
func (GoalScope) ScopeColumn() string { return "goal_id" }
func (s GoalScope) ScopeID() string { return s.GoalID }

func (s GoalScope) Validate() error {
	if s.GoalID == "" {
		return types.Validation("goal_id", "is required")
	}
	return s.ScopeItem.validate()
}
