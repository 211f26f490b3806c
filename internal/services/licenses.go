package services

import (
	"context"

	"github.com/designsafe-ci/portal-data/internal/models"
	"gorm.io/gorm"
)

type LicenseService struct {
	db *gorm.DB
}

func NewLicenseService(db *gorm.DB) *LicenseService {
	return &LicenseService{db: db}
}

// ForUser lists every license the user holds, MATLAB first.
func (s *LicenseService) ForUser(ctx context.Context, user string) ([]models.License, error) {
	db := s.db.WithContext(ctx)

	var matlab []models.MATLABLicense
	if err := db.Where("username = ?", user).Order("id").Find(&matlab).Error; err != nil {
		return nil, err
	}
	var lsdyna []models.LSDYNALicense
	if err := db.Where("username = ?", user).Order("id").Find(&lsdyna).Error; err != nil {
		return nil, err
	}

	out := make([]models.License, 0, len(matlab)+len(lsdyna))
	for _, l := range matlab {
		out = append(out, l.License)
	}
	for _, l := range lsdyna {
		out = append(out, l.License)
	}
	return out, nil
}
