package models

import (
	"time"

	"gorm.io/gorm"
)

// License types. The column is set by the model and never taken from input.
const (
	LicenseTypeMATLAB = "MATLAB"
	LicenseTypeLSDYNA = "LS-DYNA"
)

// License is the shape shared by every software license table.
type License struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	User        string    `gorm:"column:username;size:255;not null;index" json:"user"`
	LicenseType string    `gorm:"size:255;not null" json:"license_type"`
	LicenseText string    `gorm:"type:text;not null" json:"license"`
	CreatedAt   time.Time `json:"created"`
	UpdatedAt   time.Time `json:"updated"`
}

// MATLABLicense is a user's MATLAB license file.
type MATLABLicense struct {
	License
}

func (MATLABLicense) TableName() string {
	return "licenses_matlablicense"
}

func (l *MATLABLicense) BeforeSave(*gorm.DB) error {
	l.LicenseType = LicenseTypeMATLAB
	return nil
}

// LSDYNALicense is a user's LS-DYNA license file.
type LSDYNALicense struct {
	License
}

func (LSDYNALicense) TableName() string {
	return "licenses_lsdynalicense"
}

func (l *LSDYNALicense) BeforeSave(*gorm.DB) error {
	l.LicenseType = LicenseTypeLSDYNA
	return nil
}
