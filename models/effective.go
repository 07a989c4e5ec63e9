package models

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/cpsportal/catalog_backend/utils"
	"gorm.io/gorm"
)

// EffectiveDevice is a gold row with the chronologically latest override per
// field applied on top. It is derived at read time and never stored; its
// lifetime is one request.
type EffectiveDevice struct {
	DeviceUUID               string    `json:"device_uuid"`
	CpsId                    string    `json:"cps_id"`
	CpsVector                string    `json:"cps_vector"`
	Vendor                   string    `json:"vendor"`
	Model                    string    `json:"model"`
	Category                 string    `json:"category"`
	DeviceType               string    `json:"device_type"`
	IsEol                    string    `json:"is_eol"`
	PotentialCves            string    `json:"potential_cves"`
	ImageUrl                 string    `json:"image_url"`
	Links                    string    `json:"links"`
	CertifiedPatches         string    `json:"certified_patches"`
	PreInstalledApplications string    `json:"pre_installed_applications"`
	PatchingResponsibility   string    `json:"patching_responsibility"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// effectiveFieldNames lists the override-addressable columns in gold column
// order. The audit columns (device_uuid, created_at, updated_at) are not
// addressable and never participate in variant diffs.
var effectiveFieldNames = []string{
	"cps_id",
	"cps_vector",
	"vendor",
	"model",
	"category",
	"device_type",
	"is_eol",
	"potential_cves",
	"image_url",
	"links",
	"certified_patches",
	"pre_installed_applications",
	"patching_responsibility",
}

func newEffectiveDevice(g *GoldDevice) *EffectiveDevice {
	return &EffectiveDevice{
		DeviceUUID:               g.DeviceUUID,
		CpsId:                    g.CpsId,
		CpsVector:                g.CpsVector,
		Vendor:                   g.Vendor,
		Model:                    g.Model,
		Category:                 g.Category,
		DeviceType:               g.DeviceType,
		IsEol:                    g.IsEol,
		PotentialCves:            g.PotentialCves,
		ImageUrl:                 g.ImageUrl,
		Links:                    g.Links,
		CertifiedPatches:         g.CertifiedPatches,
		PreInstalledApplications: g.PreInstalledApplications,
		PatchingResponsibility:   g.PatchingResponsibility,
		CreatedAt:                g.CreatedAt,
		UpdatedAt:                g.UpdatedAt,
	}
}

func (d *EffectiveDevice) FieldValue(name string) (string, bool) {
	switch name {
	case "cps_id":
		return d.CpsId, true
	case "cps_vector":
		return d.CpsVector, true
	case "vendor":
		return d.Vendor, true
	case "model":
		return d.Model, true
	case "category":
		return d.Category, true
	case "device_type":
		return d.DeviceType, true
	case "is_eol":
		return d.IsEol, true
	case "potential_cves":
		return d.PotentialCves, true
	case "image_url":
		return d.ImageUrl, true
	case "links":
		return d.Links, true
	case "certified_patches":
		return d.CertifiedPatches, true
	case "pre_installed_applications":
		return d.PreInstalledApplications, true
	case "patching_responsibility":
		return d.PatchingResponsibility, true
	}
	return "", false
}

// SetFieldValue applies one override value; unknown field names are reported
// as false and leave the row untouched, mirroring a view that simply has no
// such column.
func (d *EffectiveDevice) SetFieldValue(name string, value string) bool {
	switch name {
	case "cps_id":
		d.CpsId = value
	case "cps_vector":
		d.CpsVector = value
	case "vendor":
		d.Vendor = value
	case "model":
		d.Model = value
	case "category":
		d.Category = value
	case "device_type":
		d.DeviceType = value
	case "is_eol":
		d.IsEol = value
	case "potential_cves":
		d.PotentialCves = value
	case "image_url":
		d.ImageUrl = value
	case "links":
		d.Links = value
	case "certified_patches":
		d.CertifiedPatches = value
	case "pre_installed_applications":
		d.PreInstalledApplications = value
	case "patching_responsibility":
		d.PatchingResponsibility = value
	default:
		return false
	}
	return true
}

// snapshotFields renders the row for override snapshots: every addressable
// field plus the device identifier, without the audit timestamps.
func (d *EffectiveDevice) snapshotFields() map[string]any {
	snapshot := make(map[string]any, len(effectiveFieldNames)+1)
	snapshot["device_uuid"] = d.DeviceUUID
	for _, name := range effectiveFieldNames {
		value, _ := d.FieldValue(name)
		snapshot[name] = value
	}
	return snapshot
}

// CatalogFilter carries the read-side filters shared by the catalog, group
// and variant queries.
type CatalogFilter struct {
	ValidatedOnly bool
	SearchTerm    string
	Vendor        string
	Category      string
}

// GetEffectiveCatalog resolves the filtered effective view, ordered by
// vendor then model. Resolving twice with no intervening commits yields
// identical results.
func (r *Repository) GetEffectiveCatalog(ctx context.Context, filter CatalogFilter) ([]*EffectiveDevice, error) {
	devices, err := r.loadEffective(ctx, filter.ValidatedOnly)
	if err != nil {
		return nil, err
	}

	filtered := make([]*EffectiveDevice, 0, len(devices))
	for _, d := range devices {
		if matchesFilter(d, filter) {
			filtered = append(filtered, d)
		}
	}
	sortByVendorModel(filtered)
	return filtered, nil
}

// GetDeviceByUUID resolves one effective row by device identifier.
func (r *Repository) GetDeviceByUUID(ctx context.Context, deviceUUID string, validatedOnly bool) (*EffectiveDevice, error) {
	return effectiveDeviceByUUID(r.db.WithContext(ctx), deviceUUID, validatedOnly)
}

func effectiveDeviceByUUID(db *gorm.DB, deviceUUID string, validatedOnly bool) (*EffectiveDevice, error) {
	var gold GoldDevice
	err := db.Where("device_uuid = ?", deviceUUID).First(&gold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	index, err := overrideIndex(db, validatedOnly, deviceUUID)
	if err != nil {
		return nil, err
	}
	return applyOverrides(newEffectiveDevice(&gold), index[deviceUUID]), nil
}

// loadEffective materializes the whole effective view: gold rows in
// deterministic order with the override log folded in.
func (r *Repository) loadEffective(ctx context.Context, validatedOnly bool) ([]*EffectiveDevice, error) {
	var gold []*GoldDevice
	if err := r.db.WithContext(ctx).Order("device_uuid").Find(&gold).Error; err != nil {
		return nil, err
	}

	index, err := overrideIndex(r.db.WithContext(ctx), validatedOnly, "")
	if err != nil {
		return nil, err
	}

	devices := make([]*EffectiveDevice, 0, len(gold))
	for _, g := range gold {
		devices = append(devices, applyOverrides(newEffectiveDevice(g), index[g.DeviceUUID]))
	}
	return devices, nil
}

// overrideIndex reduces the log to the winning value per (device, field).
// Records are replayed in changed_at order with the id as tiebreak, so the
// chronologically latest override wins. apply_for_all is recorded on the log
// entries but deliberately not consulted here; resolution keys purely on the
// device identifier.
func overrideIndex(db *gorm.DB, validatedOnly bool, deviceUUID string) (map[string]map[string]string, error) {
	dbCtx := db.Model(&FieldOverride{})
	if validatedOnly {
		dbCtx = dbCtx.Where("is_validated = ?", true)
	}
	if deviceUUID != "" {
		dbCtx = dbCtx.Where("device_uuid = ?", deviceUUID)
	}

	var overrides []*FieldOverride
	if err := dbCtx.Order("changed_at ASC, id ASC").Find(&overrides).Error; err != nil {
		return nil, err
	}

	index := make(map[string]map[string]string)
	for _, o := range overrides {
		fields := index[o.DeviceUUID]
		if fields == nil {
			fields = make(map[string]string)
			index[o.DeviceUUID] = fields
		}
		fields[o.FieldName] = o.NewValue
	}
	return index, nil
}

func applyOverrides(device *EffectiveDevice, fields map[string]string) *EffectiveDevice {
	for name, value := range fields {
		device.SetFieldValue(name, value)
	}
	return device
}

// matchesFilter applies the shared read-side filters: case-insensitive
// substring search across the identifying fields, then case-insensitive
// equality on the discrete vendor/category filters.
func matchesFilter(d *EffectiveDevice, filter CatalogFilter) bool {
	if term := strings.ToLower(filter.SearchTerm); term != "" {
		hit := false
		for _, candidate := range []string{d.CpsId, d.CpsVector, d.Model, d.Vendor, d.Category, d.PotentialCves} {
			if strings.Contains(strings.ToLower(candidate), term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if filter.Vendor != "" && !strings.EqualFold(d.Vendor, filter.Vendor) {
		return false
	}
	if filter.Category != "" && !strings.EqualFold(d.Category, filter.Category) {
		return false
	}
	return true
}

func sortByVendorModel(devices []*EffectiveDevice) {
	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Vendor != devices[j].Vendor {
			return devices[i].Vendor < devices[j].Vendor
		}
		return devices[i].Model < devices[j].Model
	})
}
