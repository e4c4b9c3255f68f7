package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// Storage location statuses.
const (
	StorageActive      = "ativo"
	StorageInactive    = "inativo"
	StorageMaintenance = "manutencao"
)

// StorageLocation is a physical archive room or shelf set. Capacity and the
// box count are entered by users, not derived. Capacity accepts "85%".
type StorageLocation struct {
	Base
	OrganizationID     string        `gorm:"type:char(36);not null;index" json:"organization_id"`
	Name               string        `gorm:"size:255;not null" json:"name"`
	Description        string        `gorm:"type:text" json:"description"`
	CapacityPercentage types.FlexInt `gorm:"not null;default:0" json:"capacity_percentage"`
	TotalDocuments     int           `gorm:"not null;default:0" json:"total_documents"`
	DocumentTypes      StringList    `json:"document_types"`
	Status             string        `gorm:"size:16;not null" json:"status"`
}

func (StorageLocation) TableName() string { return "storage_locations" }
func (StorageLocation) ScopeColumn() string { return "organization_id" }
func (s StorageLocation) ScopeID() string { return s.OrganizationID }

// Validate checks required fields, the capacity range and the status.
func (s StorageLocation) Validate() error {
	if s.OrganizationID == "" {
		return types.Validation("organization_id", "is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return types.Validation("name", "is required")
	}
	if s.CapacityPercentage < 0 || s.CapacityPercentage > 100 {
		return types.Validation("capacity_percentage", "must be between 0 and 100")
	}
	if s.TotalDocuments < 0 {
		return types.Validation("total_documents", "must not be negative")
	}
	switch s.Status {
	case StorageActive, StorageInactive, StorageMaintenance:
	default:
		return types.Validation("status", "must be ativo, inativo or manutencao")
	}
	return nil
}

// ApplyDefaults fills the status for new locations.
func (s *StorageLocation) ApplyDefaults() {
	if s.Status == "" {
		s.Status = StorageActive
	}
	if s.DocumentTypes == nil {
		s.DocumentTypes = StringList{}
	}
}
