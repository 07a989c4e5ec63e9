package models

import (
	"time"
)

// GoldDevice is one physical device instance from the gold catalog feed.
// Rows are written by the upstream ingestion pipeline; this service only
// reads them and layers user overrides on top at query time.
//
// field_overrides rows reference device_uuid without a database-level
// foreign key: re-ingestion may drop a device from the gold table while
// its override history must survive. The commit path enforces that new
// overrides land on a device the catalog can still resolve.
type GoldDevice struct {
	DeviceUUID               string    `gorm:"type:char(36);primary_key" json:"device_uuid"`
	CpsId                    string    `gorm:"size:100;index;not null" json:"cps_id"`
	CpsVector                string    `gorm:"size:100" json:"cps_vector"`
	Vendor                   string    `gorm:"size:100;index" json:"vendor"`
	Model                    string    `gorm:"size:150;index" json:"model"`
	Category                 string    `gorm:"size:100" json:"category"`
	DeviceType               string    `gorm:"size:100" json:"device_type"`
	IsEol                    string    `gorm:"size:20" json:"is_eol"`
	PotentialCves            string    `gorm:"type:text" json:"potential_cves"`
	ImageUrl                 string    `gorm:"type:text" json:"image_url"`
	Links                    string    `gorm:"type:text" json:"links"`
	CertifiedPatches         string    `gorm:"type:text" json:"certified_patches"`
	PreInstalledApplications string    `gorm:"type:text" json:"pre_installed_applications"`
	PatchingResponsibility   string    `gorm:"size:20" json:"patching_responsibility"`
	CreatedAt                time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
