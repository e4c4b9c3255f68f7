package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// Final destinations of a document type.
const (
	DestinationElimination = "Eliminação"
	DestinationPermanent   = "Guarda Permanente"
)

// DocumentType is a classification descriptor from the retention schedule.
// It is reference data and has no owner scope.
type DocumentType struct {
	Base
	Code         string `gorm:"size:32;uniqueIndex" json:"code"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Family       string `gorm:"size:120" json:"family"`
	Species      string `gorm:"size:120" json:"species"`
	Genre        string `gorm:"size:120" json:"genre"`
	Support      string `gorm:"size:120" json:"support"`
	Temporality  string `gorm:"size:255" json:"temporality"`
	Destination  string `gorm:"size:32;not null" json:"destination"`
	SecrecyLevel string `gorm:"size:32" json:"secrecy_level"`
	Description  string `gorm:"type:text" json:"description"`
}

func (DocumentType) TableName() string { return "document_types" }
func (DocumentType) ScopeColumn() string { return "" }
func (DocumentType) ScopeID() string { return "" }

func (d DocumentType) Validate() error {
	if strings.TrimSpace(d.Code) == "" {
		return types.Validation("code", "is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return types.Validation("name", "is required")
	}
	if d.Destination != DestinationElimination && d.Destination != DestinationPermanent {
		return types.Validation("destination", "must be Eliminação or Guarda Permanente")
	}
	return nil
}
