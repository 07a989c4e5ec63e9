package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cpsportal/catalog_backend/models"
	"github.com/cpsportal/catalog_backend/utils"
)

func TestEffectiveCatalogLatestOverrideWins(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	device := seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "11111111-1111-1111-1111-111111111111",
		CpsId:      "SIEMENS-S7-1500",
		Vendor:     "Siemens",
		Model:      "S7-1516-3 PN/DP",
		IsEol:      "Active",
	})

	base := time.Now().Add(-3 * time.Hour)
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: device.DeviceUUID,
		CpsId:      device.CpsId,
		FieldName:  "vendor",
		NewValue:   "SIEMENS AG",
		ChangedAt:  base,
	})
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: device.DeviceUUID,
		CpsId:      device.CpsId,
		FieldName:  "vendor",
		NewValue:   "Siemens Energy",
		ChangedAt:  base.Add(time.Hour),
	})

	got, err := repo.GetDeviceByUUID(ctx, device.DeviceUUID, false)
	if err != nil {
		t.Fatalf("GetDeviceByUUID failed: %v", err)
	}
	if got.Vendor != "Siemens Energy" {
		t.Fatalf("expected latest override to win, got vendor %q", got.Vendor)
	}
	if got.IsEol != "Active" {
		t.Fatalf("untouched field should keep base value, got is_eol %q", got.IsEol)
	}
	if got.DeviceUUID != device.DeviceUUID || got.CpsId != device.CpsId {
		t.Fatalf("identity fields must come from the base row, got %q / %q", got.DeviceUUID, got.CpsId)
	}
}

func TestEffectiveCatalogSameTimestampHigherIdWins(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	device := seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "22222222-2222-2222-2222-222222222222",
		CpsId:      "ROCKWELL-1756-L8",
		Vendor:     "Rockwell Automation",
		Model:      "ControlLogix 5580 L85E",
	})

	at := time.Now().Add(-time.Hour)
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: device.DeviceUUID,
		FieldName:  "category",
		NewValue:   "First",
		ChangedAt:  at,
	})
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: device.DeviceUUID,
		FieldName:  "category",
		NewValue:   "Second",
		ChangedAt:  at,
	})

	got, err := repo.GetDeviceByUUID(ctx, device.DeviceUUID, false)
	if err != nil {
		t.Fatalf("GetDeviceByUUID failed: %v", err)
	}
	if got.Category != "Second" {
		t.Fatalf("expected the later insert to win the timestamp tie, got %q", got.Category)
	}
}

func TestEffectiveCatalogResolutionIsRepeatable(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	device := seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "33333333-3333-3333-3333-333333333333",
		CpsId:      "AB-PLC5",
		Vendor:     "Allen-Bradley",
		Model:      "PLC-5/40E",
	})
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: device.DeviceUUID,
		FieldName:  "is_eol",
		NewValue:   "EOL",
	})

	first, err := repo.GetDeviceByUUID(ctx, device.DeviceUUID, false)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	second, err := repo.GetDeviceByUUID(ctx, device.DeviceUUID, false)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if first.IsEol != "EOL" || second.IsEol != "EOL" {
		t.Fatalf("expected EOL from both reads, got %q and %q", first.IsEol, second.IsEol)
	}
	if first.Vendor != second.Vendor || first.Model != second.Model || first.CpsId != second.CpsId {
		t.Fatalf("resolving the same log twice must give the same row:\n%+v\n%+v", first, second)
	}
}

func TestEffectiveCatalogValidatedOnly(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	device := seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "44444444-4444-4444-4444-444444444444",
		CpsId:      "PHILIPS-INTELLIVUE-MX",
		Vendor:     "Philips",
		Model:      "IntelliVue MX750",
		IsEol:      "Active",
	})

	base := time.Now().Add(-2 * time.Hour)
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID:  device.DeviceUUID,
		FieldName:   "is_eol",
		NewValue:    "EOL",
		IsValidated: utils.NewTrue(),
		ChangedAt:   base,
	})
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: device.DeviceUUID,
		FieldName:  "vendor",
		NewValue:   "Philips Healthcare",
		ChangedAt:  base.Add(time.Minute),
	})

	everything, err := repo.GetDeviceByUUID(ctx, device.DeviceUUID, false)
	if err != nil {
		t.Fatalf("unfiltered read failed: %v", err)
	}
	if everything.IsEol != "EOL" || everything.Vendor != "Philips Healthcare" {
		t.Fatalf("unfiltered view should apply both overrides, got is_eol=%q vendor=%q",
			everything.IsEol, everything.Vendor)
	}

	validated, err := repo.GetDeviceByUUID(ctx, device.DeviceUUID, true)
	if err != nil {
		t.Fatalf("validated read failed: %v", err)
	}
	if validated.IsEol != "EOL" {
		t.Fatalf("validated override must still apply, got is_eol=%q", validated.IsEol)
	}
	if validated.Vendor != "Philips" {
		t.Fatalf("unvalidated override must be skipped, got vendor=%q", validated.Vendor)
	}
}

func TestEffectiveCatalogSkipsUnknownFieldNames(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	device := seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "55555555-5555-5555-5555-555555555555",
		CpsId:      "GE-REVOLUTION-CT",
		Vendor:     "GE HealthCare",
		Model:      "Revolution Apex",
	})
	// Log rows written by an older schema may name fields that no longer
	// exist. Resolution must ignore them rather than fail.
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: device.DeviceUUID,
		FieldName:  "firmware_rev",
		NewValue:   "9.81",
	})

	got, err := repo.GetDeviceByUUID(ctx, device.DeviceUUID, false)
	if err != nil {
		t.Fatalf("GetDeviceByUUID failed: %v", err)
	}
	if got.Vendor != "GE HealthCare" {
		t.Fatalf("unexpected vendor %q", got.Vendor)
	}
}

func TestEffectiveCatalogOrderingAndFilters(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID:    "66666666-6666-6666-6666-666666666666",
		CpsId:         "SIEMENS-S7-1500",
		CpsVector:     "SIEMENS-S7-1500|S7-1516",
		Vendor:        "Siemens",
		Model:         "S7-1516-3 PN/DP",
		Category:      "Industrial Control",
		PotentialCves: "CVE-2022-38465",
	})
	seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "77777777-7777-7777-7777-777777777777",
		CpsId:      "SIEMENS-S7-1500",
		CpsVector:  "SIEMENS-S7-1500|S7-1511",
		Vendor:     "Siemens",
		Model:      "S7-1511-1 PN",
		Category:   "Industrial Control",
	})
	seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "88888888-8888-8888-8888-888888888888",
		CpsId:      "PHILIPS-INTELLIVUE-MX",
		Vendor:     "Philips",
		Model:      "IntelliVue MX750",
		Category:   "Patient Monitoring",
	})

	all, err := repo.GetEffectiveCatalog(ctx, models.CatalogFilter{})
	if err != nil {
		t.Fatalf("GetEffectiveCatalog failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(all))
	}
	if all[0].Vendor != "Philips" {
		t.Fatalf("catalog must be ordered by vendor, got %q first", all[0].Vendor)
	}
	if all[1].Model != "S7-1511-1 PN" || all[2].Model != "S7-1516-3 PN/DP" {
		t.Fatalf("same-vendor devices must be ordered by model, got %q then %q",
			all[1].Model, all[2].Model)
	}

	cases := []struct {
		name   string
		filter models.CatalogFilter
		uuids  []string
	}{
		{
			name:   "search term matches cps vector case-insensitively",
			filter: models.CatalogFilter{SearchTerm: "s7-1511"},
			uuids:  []string{"77777777-7777-7777-7777-777777777777"},
		},
		{
			name:   "search term matches potential cves",
			filter: models.CatalogFilter{SearchTerm: "cve-2022-38465"},
			uuids:  []string{"66666666-6666-6666-6666-666666666666"},
		},
		{
			name:   "vendor filter is exact but case-insensitive",
			filter: models.CatalogFilter{Vendor: "philips"},
			uuids:  []string{"88888888-8888-8888-8888-888888888888"},
		},
		{
			name:   "partial vendor does not match the vendor filter",
			filter: models.CatalogFilter{Vendor: "Phil"},
			uuids:  []string{},
		},
		{
			name:   "category filter",
			filter: models.CatalogFilter{Category: "Patient Monitoring"},
			uuids:  []string{"88888888-8888-8888-8888-888888888888"},
		},
		{
			name:   "search and vendor combine",
			filter: models.CatalogFilter{SearchTerm: "S7", Vendor: "Siemens"},
			uuids:  []string{"77777777-7777-7777-7777-777777777777", "66666666-6666-6666-6666-666666666666"},
		},
		{
			name:   "no match yields empty result, not an error",
			filter: models.CatalogFilter{SearchTerm: "does-not-exist"},
			uuids:  []string{},
		},
	}
	for _, c := range cases {
		got, err := repo.GetEffectiveCatalog(ctx, c.filter)
		if err != nil {
			t.Fatalf("%s: GetEffectiveCatalog failed: %v", c.name, err)
		}
		if got == nil {
			t.Fatalf("%s: expected non-nil slice", c.name)
		}
		if len(got) != len(c.uuids) {
			t.Fatalf("%s: expected %d devices, got %d", c.name, len(c.uuids), len(got))
		}
		for i, want := range c.uuids {
			if got[i].DeviceUUID != want {
				t.Fatalf("%s: device %d: expected %s, got %s", c.name, i, want, got[i].DeviceUUID)
			}
		}
	}
}

func TestEffectiveCatalogIgnoresOrphanedOverrides(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	seedGoldDevice(t, db, models.GoldDevice{
		DeviceUUID: "99999999-9999-9999-9999-999999999999",
		CpsId:      "AB-PLC5",
		Vendor:     "Allen-Bradley",
		Model:      "PLC-5/40E",
	})
	// History for a device the last ingestion dropped from the gold table.
	seedOverride(t, db, models.FieldOverride{
		DeviceUUID: "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa",
		CpsId:      "AB-PLC5",
		FieldName:  "vendor",
		NewValue:   "Rockwell Automation",
	})

	all, err := repo.GetEffectiveCatalog(ctx, models.CatalogFilter{})
	if err != nil {
		t.Fatalf("GetEffectiveCatalog failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected only devices present in the gold table, got %d rows", len(all))
	}
	if all[0].Vendor != "Allen-Bradley" {
		t.Fatalf("orphaned override must not leak onto another device, got vendor %q", all[0].Vendor)
	}
}

func TestGetDeviceByUUIDNotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.GetDeviceByUUID(context.Background(), "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb", false)
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected record-not-found, got %v", err)
	}
}
