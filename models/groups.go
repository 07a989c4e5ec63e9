package models

import (
	"context"
	"sort"
)

// CatalogGroup is the aggregate view of one cps group: a representative
// vendor/model, the member count and any non-empty image within the group.
type CatalogGroup struct {
	CpsId          string `json:"cps_id"`
	Vendor         string `json:"vendor"`
	Model          string `json:"model"`
	Count          int    `json:"count"`
	SampleImageUrl string `json:"sample_image_url"`
}

// GetGroupsByCpsId aggregates the filtered effective view by cps_id. The
// representative vendor/model are the first non-empty values encountered per
// group; the tie-break is arbitrary.
func (r *Repository) GetGroupsByCpsId(ctx context.Context, filter CatalogFilter) ([]*CatalogGroup, error) {
	devices, err := r.loadEffective(ctx, filter.ValidatedOnly)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*CatalogGroup)
	for _, d := range devices {
		if !matchesFilter(d, filter) {
			continue
		}
		g := groups[d.CpsId]
		if g == nil {
			g = &CatalogGroup{CpsId: d.CpsId}
			groups[d.CpsId] = g
		}
		if g.Vendor == "" {
			g.Vendor = d.Vendor
		}
		if g.Model == "" {
			g.Model = d.Model
		}
		if g.SampleImageUrl == "" {
			g.SampleImageUrl = d.ImageUrl
		}
		g.Count++
	}

	result := make([]*CatalogGroup, 0, len(groups))
	for _, g := range groups {
		result = append(result, g)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Vendor != result[j].Vendor {
			return result[i].Vendor < result[j].Vendor
		}
		return result[i].Model < result[j].Model
	})
	return result, nil
}

// GetCpsVariants returns all effective rows sharing a cps_id, ordered by
// model then cps_vector, together with the names of the fields whose values
// differ across the members.
func (r *Repository) GetCpsVariants(ctx context.Context, cpsId string, validatedOnly bool) ([]*EffectiveDevice, []string, error) {
	devices, err := r.loadEffective(ctx, validatedOnly)
	if err != nil {
		return nil, nil, err
	}

	members := make([]*EffectiveDevice, 0)
	for _, d := range devices {
		if d.CpsId == cpsId {
			members = append(members, d)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Model != members[j].Model {
			return members[i].Model < members[j].Model
		}
		return members[i].CpsVector < members[j].CpsVector
	})

	return members, differingFields(members), nil
}

// differingFields lists the addressable fields that take more than one
// distinct value across the members. The device identifier and audit
// timestamps never participate; with fewer than two members the answer is
// empty by definition.
func differingFields(members []*EffectiveDevice) []string {
	fields := make([]string, 0)
	if len(members) < 2 {
		return fields
	}
	for _, name := range effectiveFieldNames {
		seen := make(map[string]bool, len(members))
		for _, m := range members {
			value, _ := m.FieldValue(name)
			seen[value] = true
		}
		if len(seen) > 1 {
			fields = append(fields, name)
		}
	}
	return fields
}
