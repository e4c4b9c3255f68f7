package services

import (
	"context"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/derive"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/types"
)

// MemberView is a team member with its derived status.
type MemberView struct {
	models.TeamMember
	Status string `json:"status"`
}

// ListTeam returns the members of an organization. A non-empty status keeps
// only members with that derived status.
func ListTeam(ctx context.Context, hub *collection.Hub, orgID, status string) ([]MemberView, error) {
	switch status {
	case "", derive.MemberActive, derive.MemberInactive:
	default:
		return nil, types.Validation("status", "must be ativo or inativo")
	}

	members := collection.New[models.TeamMember](hub)
	if err := members.Load(ctx, orgID); err != nil {
		return nil, err
	}
	out := make([]MemberView, 0)
	for _, m := range members.Items() {
		view := MemberView{TeamMember: m, Status: derive.MemberStatus(m.EndDate)}
		if status != "" && view.Status != status {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}
