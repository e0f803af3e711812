package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"rent-portfolio/models"
)

type unitListDocument struct {
	Units []json.RawMessage `json:"units"`
}

type unitListUnit struct {
	UnitID         flexString `json:"unitId"`
	UnitName       flexString `json:"unitName"`
	UnitNumber     flexString `json:"unitNumber"`
	CommunityName  string     `json:"communityName"`
	BedroomNumber  flexInt    `json:"bedroomNumber"`
	BathroomNumber flexInt    `json:"bathroomNumber"`
	SquareFeet     flexInt    `json:"squareFeet"`
	FloorNumber    flexString `json:"floorNumber"`
	FloorPlan      *struct {
		ID   flexString `json:"id"`
		Name string     `json:"name"`
	} `json:"floorPlan"`
	Pricing *struct {
		EffectivePrice flexInt `json:"effectivePrice"`
		Price          flexInt `json:"price"`
	} `json:"pricing"`
	URL string `json:"url"`
}

// UnitListPayload is a decoded direct unit-list document.
type UnitListPayload struct {
	units []json.RawMessage
}

func (*UnitListPayload) Schema() Schema { return SchemaUnitList }

func decodeUnitList(raw []byte) (*UnitListPayload, error) {
	var doc unitListDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parser: decode unit list: %w", err)
	}
	return &UnitListPayload{units: doc.Units}, nil
}

func (p *UnitListPayload) drafts(src Source, accept func(label string) bool) ([]models.UnitRecord, []error) {
	out := make([]models.UnitRecord, 0, len(p.units))
	var errs []error
	for i, raw := range p.units {
		var u unitListUnit
		if err := json.Unmarshal(raw, &u); err != nil {
			errs = append(errs, fmt.Errorf("unit %d: %w", i, err))
			continue
		}

		name := firstNonEmpty(string(u.UnitName), string(u.UnitNumber))
		if !accept(name) {
			continue
		}
		if u.UnitID == "" && name == "" {
			errs = append(errs, fmt.Errorf("unit %d: no id or name", i))
			continue
		}

		complexName := src.PropertyName
		if c := strings.TrimSpace(u.CommunityName); c != "" && complexName == "" {
			complexName = c
		}

		var planID string
		if u.FloorPlan != nil {
			planID = firstNonEmpty(string(u.FloorPlan.ID), u.FloorPlan.Name)
		}

		var price *int
		if u.Pricing != nil {
			price = u.Pricing.EffectivePrice.Ptr()
			if price == nil {
				price = u.Pricing.Price.Ptr()
			}
		}

		webURL := u.URL
		if webURL == "" {
			webURL = src.Endpoint
		}

		out = append(out, models.UnitRecord{
			State:       src.State,
			City:        src.City,
			AptComplex:  complexName,
			BlockID:     src.BlockID,
			AptID:       string(u.UnitID),
			AptName:     name,
			UnitNumber:  firstNonEmpty(string(u.UnitNumber), string(u.UnitName)),
			BedCount:    u.BedroomNumber.Ptr(),
			BathCount:   u.BathroomNumber.Ptr(),
			Sqft:        u.SquareFeet.Ptr(),
			Floor:       string(u.FloorNumber),
			FloorPlanID: planID,
			Price:       price,
			WebURL:      webURL,
		})
	}
	return out, errs
}
