package parser

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Schema identifies which vendor payload shape a document has.
type Schema int

const (
	SchemaUnknown Schema = iota
	// SchemaSightmap is the nested data.units / data.floor_plans / data.floors shape.
	SchemaSightmap
	// SchemaUnitList is a top-level units[] array with per-unit pricing objects.
	SchemaUnitList
)

func (s Schema) String() string {
	switch s {
	case SchemaSightmap:
		return "sightmap"
	case SchemaUnitList:
		return "unit-list"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownSchema is returned when a document matches neither shape.
	ErrUnknownSchema = errors.New("parser: unrecognized payload shape")
	// ErrMissingUnits is returned when a recognized document has no unit collection.
	ErrMissingUnits = errors.New("parser: payload has no unit collection")
)

// Classify sniffs the shape of a raw payload. A recognized shape without
// its unit collection is reported together with ErrMissingUnits.
func Classify(raw []byte) (Schema, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return SchemaUnknown, fmt.Errorf("parser: decode payload: %w", err)
	}

	if data, ok := top["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			_, hasUnits := inner["units"]
			_, hasPlans := inner["floor_plans"]
			_, hasFloors := inner["floors"]
			switch {
			case hasUnits:
				return SchemaSightmap, nil
			case hasPlans || hasFloors:
				return SchemaSightmap, ErrMissingUnits
			}
		}
	}

	if units, ok := top["units"]; ok {
		var list []json.RawMessage
		if err := json.Unmarshal(units, &list); err != nil {
			return SchemaUnitList, ErrMissingUnits
		}
		return SchemaUnitList, nil
	}

	if _, ok := top["data"]; ok {
		return SchemaSightmap, ErrMissingUnits
	}
	return SchemaUnknown, ErrUnknownSchema
}
