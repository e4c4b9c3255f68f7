package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// CommunityPost is a forum question or discussion.
type CommunityPost struct {
	Base
	OrganizationID string     `gorm:"type:char(36);index" json:"organization_id"`
	UserID         string     `gorm:"size:36;not null;index" json:"user_id"`
	AuthorName     string     `gorm:"size:255" json:"author_name"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Category       string     `gorm:"size:64" json:"category"`
	Type           string     `gorm:"size:32" json:"type"`
	Tags           StringList `json:"tags"`
	Votes          int        `gorm:"not null;default:0" json:"votes"`
	Views          int        `gorm:"not null;default:0" json:"views"`
	Solved         bool       `gorm:"not null;default:false" json:"solved"`
}

func (CommunityPost) TableName() string { return "community_posts" }
func (CommunityPost) ScopeColumn() string { return "organization_id" }
func (p CommunityPost) ScopeID() string { return p.OrganizationID }

func (p CommunityPost) Validate() error {
	if p.UserID == "" {
		return types.Validation("user_id", "is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return types.Validation("title", "is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return types.Validation("content", "is required")
	}
	return nil
}

func (p *CommunityPost) ApplyDefaults() {
	if p.Type == "" {
		p.Type = "question"
	}
	if p.Tags == nil {
		p.Tags = StringList{}
	}
}

func (p *CommunityPost) Stamp(userID string) { p.UserID = userID }
func (CommunityPost) StampColumn() string { return "user_id" }

// OwnedColumns are maintained by the vote, view and solution procedures.
func (CommunityPost) OwnedColumns() []string { return []string{"votes", "views", "solved"} }

func (p *CommunityPost) ResetOwned() {
	p.Votes, p.Views, p.Solved = 0, 0, false
}

// CommunityReply answers a post. At most one reply per post is the solution.
type CommunityReply struct {
	Base
	PostID     string `gorm:"type:char(36);not null;index" json:"post_id"`
	UserID     string `gorm:"size:36;not null" json:"user_id"`
	AuthorName string `gorm:"size:255" json:"author_name"`
	Content    string `gorm:"type:text;not null" json:"content"`
	IsSolution bool   `gorm:"not null;default:false" json:"is_solution"`
	Votes      int    `gorm:"not null;default:0" json:"votes"`
}

func (CommunityReply) TableName() string { return "community_replies" }
func (CommunityReply) ScopeColumn() string { return "post_id" }
func (r CommunityReply) ScopeID() string { return r.PostID }

func (r CommunityReply) Validate() error {
	if r.PostID == "" {
		return types.Validation("post_id", "is required")
	}
	if r.UserID == "" {
		return types.Validation("user_id", "is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return types.Validation("content", "is required")
	}
	return nil
}

func (r *CommunityReply) Stamp(userID string) { r.UserID = userID }
func (CommunityReply) StampColumn() string { return "user_id" }

func (CommunityReply) OwnedColumns() []string { return []string{"votes", "is_solution"} }

func (r *CommunityReply) ResetOwned() {
	r.Votes, r.IsSolution = 0, false
}
