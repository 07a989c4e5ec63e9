package models

import (
	"context"
	"time"
)

// ChangeWithDevice is an override record joined with the current gold
// vendor/model/cps_id of its device. Devices that have since left the gold
// table leave the joined columns empty.
type ChangeWithDevice struct {
	FieldOverride `gorm:"embedded"`
	Model         string `json:"model"`
	Vendor        string `json:"vendor"`
	DeviceCpsId   string `json:"device_cps_id"`
}

// DeviceChangeCount is one day's override tally for a device.
type DeviceChangeCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// GetAllChanges returns the newest change records across all devices,
// enriched with gold device info, capped at limit.
func (r *Repository) GetAllChanges(ctx context.Context, limit int) ([]*ChangeWithDevice, error) {
	changes := make([]*ChangeWithDevice, 0)
	err := r.db.WithContext(ctx).
		Table("field_overrides AS u").
		Select("u.*, g.model, g.vendor, g.cps_id AS device_cps_id").
		Joins("LEFT JOIN gold_devices g ON u.device_uuid = g.device_uuid").
		Order("u.changed_at DESC, u.id DESC").
		Limit(limit).
		Scan(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// GetDeviceChangesOverTime counts a device's overrides per calendar date
// within the trailing days window, oldest date first.
func (r *Repository) GetDeviceChangesOverTime(ctx context.Context, deviceUUID string, days int) ([]*DeviceChangeCount, error) {
	// The window starts at midnight `days` days back, like date-based SQL
	// arithmetic would.
	cutoff := time.Now().AddDate(0, 0, -days)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	var overrides []*FieldOverride
	err := r.db.WithContext(ctx).
		Select("changed_at").
		Where("device_uuid = ? AND changed_at >= ?", deviceUUID, cutoff).
		Order("changed_at ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, o := range overrides {
		day := o.ChangedAt.Format("2006-01-02")
		if _, ok := counts[day]; !ok {
			order = append(order, day)
		}
		counts[day]++
	}

	results := make([]*DeviceChangeCount, 0, len(order))
	for _, day := range order {
		results = append(results, &DeviceChangeCount{Date: day, Count: counts[day]})
	}
	return results, nil
}

// DeleteChange removes one override record by id, reporting whether a record
// was actually removed. Absent ids are not an error. No snapshot is
// restored; the entry simply stops participating in resolution.
func (r *Repository) DeleteChange(ctx context.Context, changeId int) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&FieldOverride{}, changeId)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
