package models

import (
	"context"
)

// CatalogStats is the portal's headline numbers.
type CatalogStats struct {
	TotalDevices   int64 `json:"total_devices"`
	Vendors        int64 `json:"vendors"`
	TotalOverrides int64 `json:"total_overrides"`
}

func (r *Repository) GetStats(ctx context.Context) (*CatalogStats, error) {
	var stats CatalogStats

	if err := r.db.WithContext(ctx).Model(&GoldDevice{}).Count(&stats.TotalDevices).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&GoldDevice{}).
		Where("vendor <> ''").
		Distinct("vendor").
		Count(&stats.Vendors).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&FieldOverride{}).Count(&stats.TotalOverrides).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
