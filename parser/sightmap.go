package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"rent-portfolio/models"
)

type sightmapDocument struct {
	Data struct {
		Asset struct {
			Name string `json:"name"`
		} `json:"asset"`
		FloorPlans []sightmapFloorPlan `json:"floor_plans"`
		Floors     []sightmapFloor     `json:"floors"`
		Units      []json.RawMessage   `json:"units"`
	} `json:"data"`
}

type sightmapFloorPlan struct {
	ID            flexString `json:"id"`
	BedroomCount  flexInt    `json:"bedroom_count"`
	BathroomCount flexInt    `json:"bathroom_count"`
	FilterLabel   string     `json:"filter_label"`
}

type sightmapFloor struct {
	ID               flexString `json:"id"`
	FilterShortLabel string     `json:"filter_short_label"`
	Name             flexString `json:"name"`
}

type sightmapUnit struct {
	ID                flexString `json:"id"`
	UnitNumber        flexString `json:"unit_number"`
	DisplayUnitNumber flexString `json:"display_unit_number"`
	Label             flexString `json:"label"`
	FloorPlanID       flexString `json:"floor_plan_id"`
	FloorID           flexString `json:"floor_id"`
	Area              flexInt    `json:"area"`
	Price             flexInt    `json:"price"`
	OutboundLinks     []struct {
		URL string `json:"url"`
	} `json:"outbound_links"`
}

// SightmapPayload is a decoded sightmap document with its lookup tables
// indexed by id.
type SightmapPayload struct {
	assetName string
	plans     map[string]sightmapFloorPlan
	floors    map[string]string
	units     []json.RawMessage
}

func (*SightmapPayload) Schema() Schema { return SchemaSightmap }

func decodeSightmap(raw []byte) (*SightmapPayload, error) {
	var doc sightmapDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parser: decode sightmap: %w", err)
	}

	p := &SightmapPayload{
		assetName: strings.TrimSpace(doc.Data.Asset.Name),
		plans:     make(map[string]sightmapFloorPlan, len(doc.Data.FloorPlans)),
		floors:    make(map[string]string, len(doc.Data.Floors)),
		units:     doc.Data.Units,
	}
	for _, fp := range doc.Data.FloorPlans {
		p.plans[string(fp.ID)] = fp
	}
	for _, f := range doc.Data.Floors {
		label := f.FilterShortLabel
		if label == "" {
			label = string(f.Name)
		}
		p.floors[string(f.ID)] = label
	}
	return p, nil
}

func (p *SightmapPayload) drafts(src Source, accept func(label string) bool) ([]models.UnitRecord, []error) {
	complexName := src.PropertyName
	if p.assetName != "" {
		complexName = p.assetName
	}

	out := make([]models.UnitRecord, 0, len(p.units))
	var errs []error
	for i, raw := range p.units {
		var u sightmapUnit
		if err := json.Unmarshal(raw, &u); err != nil {
			errs = append(errs, fmt.Errorf("unit %d: %w", i, err))
			continue
		}

		name := firstNonEmpty(string(u.DisplayUnitNumber), string(u.Label), string(u.UnitNumber))
		if !accept(name) {
			continue
		}
		if u.ID == "" && name == "" {
			errs = append(errs, fmt.Errorf("unit %d: no id or name", i))
			continue
		}

		plan := p.plans[string(u.FloorPlanID)]
		webURL := src.Endpoint
		for _, link := range u.OutboundLinks {
			if link.URL != "" {
				webURL = link.URL
				break
			}
		}

		out = append(out, models.UnitRecord{
			State:       src.State,
			City:        src.City,
			AptComplex:  complexName,
			BlockID:     src.BlockID,
			AptID:       string(u.ID),
			AptName:     name,
			UnitNumber:  string(u.UnitNumber),
			BedCount:    plan.BedroomCount.Ptr(),
			BathCount:   plan.BathroomCount.Ptr(),
			Sqft:        u.Area.Ptr(),
			Floor:       p.floors[string(u.FloorID)],
			FloorPlanID: string(u.FloorPlanID),
			Price:       u.Price.Ptr(),
			WebURL:      webURL,
		})
	}
	return out, errs
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
