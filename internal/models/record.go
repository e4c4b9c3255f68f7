package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is implemented by every table mirrored through the store.
// ScopeColumn names the foreign key a collection is filtered by; an empty
// column means the table is not scoped (reference data).
type Record interface {
	TableName() string
	RecordID() string
	ScopeColumn() string
	ScopeID() string
}

// Validator is implemented by records with required fields.
type Validator interface {
	Validate() error
}

// Defaulter is implemented by records that fill unset fields before insert.
type Defaulter interface {
	ApplyDefaults()
}

// Stamper is implemented by records that carry the creating user's id.
// The stamp column is set on insert and never changes afterwards.
type Stamper interface {
	Stamp(userID string)
	StampColumn() string
}

// Owned is implemented by records with columns only store procedures may
// write. Insert resets them and Update rejects them.
type Owned interface {
	OwnedColumns() []string
	ResetOwned()
}

// Base carries the primary key and timestamps shared by all records.
type Base struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID returns the primary key.
func (b Base) RecordID() string {
	return b.ID
}

// BeforeCreate assigns a uuid when the caller did not supply one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&StorageLocation{},
		&TeamMember{},
		&Task{},
		&StrategicPlan{},
		&PlanObjective{},
		&PlanAction{},
		&ActionScope{},
		&PlanTeamMember{},
		&Project{},
		&Goal{},
		&GoalScope{},
		&CommunityPost{},
		&CommunityReply{},
		&DocumentType{},
	}
}
