package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cpsportal/catalog_backend/config"
	"github.com/cpsportal/catalog_backend/utils"
	"gorm.io/gorm"
)

// FieldOverride is one entry in the append-only change log. Entries are
// never updated in place; the resolver replays them to compute effective
// rows, and deleting one simply removes it from future resolution.
type FieldOverride struct {
	ID             int       `gorm:"primary_key" json:"id"`
	DeviceUUID     string    `gorm:"type:char(36);index;not null" json:"device_uuid"`
	CpsId          string    `gorm:"size:100;index" json:"cps_id"`
	FieldName      string    `gorm:"size:100;not null" json:"field_name"`
	NewValue       string    `gorm:"type:text" json:"new_value"`
	EditorUserId   string    `gorm:"size:255;not null" json:"editor_user_id"`
	EditorUserName string    `gorm:"size:255" json:"editor_user_name"`
	Note           string    `gorm:"type:text" json:"note"`
	SnapshotBefore string    `gorm:"type:text" json:"snapshot_before"`
	SnapshotAfter  string    `gorm:"type:text" json:"snapshot_after"`
	Source         string    `gorm:"size:20;not null;default:ui" json:"source"`
	IsValidated    *bool     `gorm:"not null;default:false" json:"is_validated"`
	ApplyForAll    *bool     `gorm:"not null;default:false" json:"apply_for_all"`
	ChangedAt      time.Time `gorm:"index;autoCreateTime" json:"changed_at"`
}

type NewFieldOverride struct {
	DeviceUUID     string `json:"device_uuid" binding:"required"`
	FieldName      string `json:"field_name" binding:"required"`
	NewValue       string `json:"new_value"`
	EditorUserId   string `json:"editor_user_id"`
	EditorUserName string `json:"editor_user_name"`
	Note           string `json:"note"`
	ApplyForAll    bool   `json:"apply_for_all"`
}

// CommitFieldOverride appends one override record. The value is validated
// before any transaction opens; the effective-row read, snapshot capture,
// write-target resolution and insert then share a single transaction, so a
// failure anywhere leaves no partial write behind.
func (r *Repository) CommitFieldOverride(ctx context.Context, input *NewFieldOverride) (*FieldOverride, error) {
	if err := ValidateField(input.FieldName, input.NewValue); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "commit-field-override")
	defer span.End()

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	device, inGold, err := effectiveForCommit(tx, input.DeviceUUID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	before := device.snapshotFields()
	after := device.snapshotFields()
	after[input.FieldName] = input.NewValue

	snapshotBefore, err := utils.MarshalToJSON(utils.ToJSONSafe(before))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	snapshotAfter, err := utils.MarshalToJSON(utils.ToJSONSafe(after))
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	targetUUID := input.DeviceUUID
	if !inGold {
		targetUUID, err = groupWriteTarget(tx, device.CpsId)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	override := FieldOverride{
		DeviceUUID:     targetUUID,
		CpsId:          device.CpsId,
		FieldName:      input.FieldName,
		NewValue:       input.NewValue,
		EditorUserId:   input.EditorUserId,
		EditorUserName: input.EditorUserName,
		Note:           input.Note,
		SnapshotBefore: snapshotBefore,
		SnapshotAfter:  snapshotAfter,
		Source:         OverrideSourceUI,
		IsValidated:    utils.NewFalse(),
		ApplyForAll:    &input.ApplyForAll,
	}
	if err := tx.Create(&override).Error; err != nil {
		tx.Rollback()
		config.LogError(r.logger, "models", "CommitFieldOverride", "Failed to insert override", input, err)
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &override, nil
}

// effectiveForCommit resolves the row the commit snapshots are taken from,
// reporting whether the device is present in the gold table. The gold feed
// and the override log can drift: a device dropped by re-ingestion may still
// carry log entries, in which case its latest snapshot_after is the row as
// last presented and the commit proceeds from that.
func effectiveForCommit(tx *gorm.DB, deviceUUID string) (*EffectiveDevice, bool, error) {
	device, err := effectiveDeviceByUUID(tx, deviceUUID, false)
	if err == nil {
		return device, true, nil
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, false, err
	}

	var last FieldOverride
	err = tx.Where("device_uuid = ?", deviceUUID).Order("changed_at DESC, id DESC").First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("device %s: %w", deviceUUID, utils.ErrorRecordNotFound)
		}
		return nil, false, err
	}

	var snapshot map[string]any
	if err := utils.UnmarshalFromJSON([]byte(last.SnapshotAfter), &snapshot); err != nil {
		return nil, false, fmt.Errorf("device %s has an unreadable snapshot: %v", deviceUUID, err)
	}

	device = &EffectiveDevice{DeviceUUID: deviceUUID}
	for name, value := range snapshot {
		if s, ok := value.(string); ok {
			device.SetFieldValue(name, s)
		}
	}
	if last.CpsId != "" {
		device.CpsId = last.CpsId
	}
	return device, false, nil
}

// groupWriteTarget picks a gold member of the cps group to anchor an
// override whose requested device identifier is absent from the gold table.
// Which member is arbitrary; what matters is that the entry lands on a
// device the catalog can still resolve.
func groupWriteTarget(tx *gorm.DB, cpsId string) (string, error) {
	var member GoldDevice
	err := tx.Select("device_uuid").Where("cps_id = ?", cpsId).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("no gold device for cps_id %s: %w", cpsId, utils.ErrorRecordNotFound)
		}
		return "", err
	}
	return member.DeviceUUID, nil
}

// GetDeviceOverrides returns the full override history for a device, newest
// first.
func (r *Repository) GetDeviceOverrides(ctx context.Context, deviceUUID string) ([]*FieldOverride, error) {
	overrides := make([]*FieldOverride, 0)
	err := r.db.WithContext(ctx).
		Where("device_uuid = ?", deviceUUID).
		Order("changed_at DESC, id DESC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}
