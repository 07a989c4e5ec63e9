// seed-dev loads a small gold catalog for local portal development.
// Safe to rerun: devices already present (by device_uuid) are left untouched.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cpsportal/catalog_backend/config"
	"github.com/cpsportal/catalog_backend/models"
	"gorm.io/gorm"
)

func devCatalog() []models.GoldDevice {
	return []models.GoldDevice{
		{
			DeviceUUID:               "7f3c1a9e-4b2d-4c8f-9a61-0d5e8b2f7c10",
			CpsId:                    "SIEMENS-S7-1500",
			CpsVector:                "6ES7 516-3AN02-0AB0",
			Vendor:                   "Siemens",
			Model:                    "SIMATIC S7-1516-3 PN/DP",
			Category:                 "Industrial Control",
			DeviceType:               "PLC",
			IsEol:                    "Active",
			PatchingResponsibility:   "Vendor",
			PotentialCves:            `["CVE-2022-38465", "CVE-2021-37204"]`,
			Links:                    "https://support.industry.siemens.com/cs/products/6es7516-3an02-0ab0",
			CertifiedPatches:         `[{"kb": "HF-V2.9.4", "link": "https://support.industry.siemens.com/cs/document/109817418"}]`,
			PreInstalledApplications: `[{"app": "SIMATIC Web Server", "relevance": "Relevant"}]`,
		},
		{
			DeviceUUID:             "2d84f0b1-6a7e-4f3a-8c25-91b4dce06f42",
			CpsId:                  "SIEMENS-S7-1500",
			CpsVector:              "6ES7 511-1AK02-0AB0",
			Vendor:                 "Siemens",
			Model:                  "SIMATIC S7-1511-1 PN",
			Category:               "Industrial Control",
			DeviceType:             "PLC",
			IsEol:                  "Active",
			PatchingResponsibility: "Vendor",
			PotentialCves:          `["CVE-2022-38465"]`,
		},
		{
			DeviceUUID:             "9cfe5a27-13d8-4b6c-b0f4-6e2a81c95d33",
			CpsId:                  "ROCKWELL-1756-L8",
			CpsVector:              "1756-L85E/B",
			Vendor:                 "Rockwell Automation",
			Model:                  "ControlLogix 5580 L85E",
			Category:               "Industrial Control",
			DeviceType:             "Controller",
			IsEol:                  "Active",
			PatchingResponsibility: "Shared",
			PotentialCves:          `["CVE-2022-1161", "CVE-2022-1159"]`,
			Links:                  "https://www.rockwellautomation.com/en-us/products/hardware/allen-bradley/programmable-controllers/large-controllers/controllogix.html",
		},
		{
			DeviceUUID:             "c1b7d3e8-9f04-4a52-a6c7-3d08e5f21b94",
			CpsId:                  "ROCKWELL-1756-L8",
			CpsVector:              "1756-L81E/B",
			Vendor:                 "Rockwell Automation",
			Model:                  "ControlLogix 5580 L81E",
			Category:               "Industrial Control",
			DeviceType:             "Controller",
			IsEol:                  "Active",
			PatchingResponsibility: "Shared",
			PotentialCves:          `["CVE-2022-1161"]`,
		},
		{
			DeviceUUID:             "5a90e6c2-7d1b-4e8f-bc39-84f5a0d7e261",
			CpsId:                  "AB-PLC5",
			CpsVector:              "1785-L40E",
			Vendor:                 "Rockwell Automation",
			Model:                  "PLC-5/40E",
			Category:               "Industrial Control",
			DeviceType:             "PLC",
			IsEol:                  "EOL",
			PatchingResponsibility: "User",
		},
		{
			DeviceUUID:               "e48a2f95-0c6d-43b7-9e12-57a3b8c40d76",
			CpsId:                    "PHILIPS-INTELLIVUE-MX",
			CpsVector:                "MX750 R1.1",
			Vendor:                   "Philips",
			Model:                    "IntelliVue MX750",
			Category:                 "Patient Care",
			DeviceType:               "Patient Monitor",
			IsEol:                    "Active",
			PatchingResponsibility:   "Vendor",
			PotentialCves:            `["CVE-2020-16212", "CVE-2020-16218"]`,
			ImageUrl:                 "https://www.philips.com/c-dam/b2bhc/master/landing-pages/intellivue-mx750.jpg",
			Links:                    "https://www.usa.philips.com/healthcare/product/HC867263/intellivue-mx750",
			PreInstalledApplications: `[{"app": "IntelliVue XDS", "relevance": "Relevant"}, {"app": "Service Console", "relevance": "Irrelevant"}]`,
		},
		{
			DeviceUUID:             "b36d8c04-5e2a-41f9-87d5-c90e4a1f6b28",
			CpsId:                  "PHILIPS-INTELLIVUE-MX",
			CpsVector:              "MX850 R1.1",
			Vendor:                 "Philips",
			Model:                  "IntelliVue MX850",
			Category:               "Patient Care",
			DeviceType:             "Patient Monitor",
			IsEol:                  "Active",
			PatchingResponsibility: "Vendor",
			PotentialCves:          `["CVE-2020-16212"]`,
			ImageUrl:               "https://www.philips.com/c-dam/b2bhc/master/landing-pages/intellivue-mx850.jpg",
		},
		{
			DeviceUUID:             "1e5f7a83-2b9c-48d0-a4e6-f72c05d81b39",
			CpsId:                  "GE-REVOLUTION-CT",
			CpsVector:              "Apex 16cm",
			Vendor:                 "GE HealthCare",
			Model:                  "Revolution Apex",
			Category:               "Medical Imaging",
			DeviceType:             "Imaging",
			IsEol:                  "Active",
			PatchingResponsibility: "Shared",
			Links:                  "https://www.gehealthcare.com/products/computed-tomography/revolution-apex",
		},
	}
}

func main() {
	ctx := context.Background()

	db, err := config.ConnectDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}

	created := 0
	for _, device := range devCatalog() {
		var existing models.GoldDevice
		err := db.WithContext(ctx).Where("device_uuid = ?", device.DeviceUUID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Fprintf(os.Stderr, "failed to lookup device %s: %v\n", device.DeviceUUID, err)
			os.Exit(1)
		}
		if err := db.WithContext(ctx).Create(&device).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create device %s: %v\n", device.DeviceUUID, err)
			os.Exit(1)
		}
		created++
	}

	fmt.Printf("Seeded %d gold devices (%d already present)\n", created, len(devCatalog())-created)
}
