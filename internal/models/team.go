package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// TeamMember belongs to an organization. Its active/inactive status is
// derived from EndDate and never stored.
type TeamMember struct {
	Base
	OrganizationID string  `gorm:"type:char(36);not null;index" json:"organization_id"`
	Name           string  `gorm:"size:255;not null" json:"name"`
	Email          string  `gorm:"size:255" json:"email"`
	Role           string  `gorm:"size:120" json:"role"`
	Position       string  `gorm:"size:120" json:"position"`
	Department     string  `gorm:"size:120" json:"department"`
	StartDate      string  `gorm:"size:10" json:"start_date"`
	EndDate        *string `gorm:"size:10" json:"end_date,omitempty"`
}

func (TeamMember) TableName() string { return "team_members" }
func (TeamMember) ScopeColumn() string { return "organization_id" }
func (m TeamMember) ScopeID() string { return m.OrganizationID }

func (m TeamMember) Validate() error {
	if m.OrganizationID == "" {
		return types.Validation("organization_id", "is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return types.Validation("name", "is required")
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return types.Validation("email", "is not a valid address")
	}
	return nil
}

// PlanTeamMember is scoped to a strategic plan, distinct from the
// organization's TeamMember.
type PlanTeamMember struct {
	Base
	PlanID         string `gorm:"type:char(36);not null;index" json:"plan_id"`
	Name           string `gorm:"size:255;not null" json:"name"`
	Role           string `gorm:"size:120" json:"role"`
	Email          string `gorm:"size:255" json:"email"`
	Responsibility string `gorm:"type:text" json:"responsibility"`
}

func (PlanTeamMember) TableName() string { return "strategic_plan_team_members" }
func (PlanTeamMember) ScopeColumn() string { return "plan_id" }
func (m PlanTeamMember) ScopeID() string { return m.PlanID }

func (m PlanTeamMember) Validate() error {
	if m.PlanID == "" {
		return types.Validation("plan_id", "is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return types.Validation("name", "is required")
	}
	return nil
}
