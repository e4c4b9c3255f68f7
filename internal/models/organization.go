package models

import (
	"strings"

	"github.com/localnerve/recordsdb/internal/types"
)

// Organization is the root scope; almost every record carries its id.
type Organization struct {
	Base
	Name         string `gorm:"size:255;not null" json:"name"`
	Acronym      string `gorm:"size:32" json:"acronym"`
	CNPJ         string `gorm:"column:cnpj;size:18;index" json:"cnpj"`
	Address      string `gorm:"size:255" json:"address"`
	City         string `gorm:"size:120" json:"city"`
	State        string `gorm:"size:2" json:"state"`
	ZipCode      string `gorm:"size:9" json:"zip_code"`
	Phone        string `gorm:"size:32" json:"phone"`
	Email        string `gorm:"size:255" json:"email"`
	Website      string `gorm:"size:255" json:"website"`
	ContactName  string `gorm:"size:255" json:"contact_name"`
	ContactEmail string `gorm:"size:255" json:"contact_email"`
}

func (Organization) TableName() string { return "organizations" }
func (Organization) ScopeColumn() string { return "" }
func (Organization) ScopeID() string { return "" }

// Validate checks required fields and the CNPJ length when present.
func (o Organization) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return types.Validation("name", "is required")
	}
	if o.CNPJ != "" {
		digits := 0
		for _, r := range o.CNPJ {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits != 14 {
			return types.Validation("cnpj", "must have 14 digits")
		}
	}
	return nil
}
