package parser

import (
	"errors"
	"sort"
	"strings"

	"rent-portfolio/models"
	"rent-portfolio/utils"
)

// Source is what the caller already knows about the property a payload
// belongs to.
type Source struct {
	State        string
	City         string
	PropertyName string
	BlockID      string
	Endpoint     string
}

// Payload is one decoded vendor document. The concrete type is
// *SightmapPayload or *UnitListPayload.
type Payload interface {
	Schema() Schema
	drafts(src Source, accept func(label string) bool) ([]models.UnitRecord, []error)
}

// Decode classifies raw and decodes it into the matching Payload.
func Decode(raw []byte) (Payload, error) {
	schema, err := Classify(raw)
	if err != nil {
		return nil, err
	}
	switch schema {
	case SchemaSightmap:
		return decodeSightmap(raw)
	case SchemaUnitList:
		return decodeUnitList(raw)
	default:
		return nil, ErrUnknownSchema
	}
}

// Result is the outcome of parsing one property's payload.
type Result struct {
	Schema  Schema
	Units   []models.UnitRecord
	Skipped int
}

// Parser turns raw vendor payloads into UnitRecord drafts. Drafts carry no
// temporal or indicator fields.
type Parser struct {
	logger       *utils.Logger
	unitPrefixes []string
}

// NewParser creates a Parser. When unitPrefixes is non-empty only units
// whose label starts with one of them are kept (e.g. "APT", "HOME").
func NewParser(logger *utils.Logger, unitPrefixes []string) *Parser {
	return &Parser{logger: logger, unitPrefixes: unitPrefixes}
}

// Parse never fails: shape problems yield an empty result and a warning,
// and a malformed unit is skipped without affecting its siblings.
func (p *Parser) Parse(raw []byte, src Source) Result {
	payload, err := Decode(raw)
	if err != nil {
		if errors.Is(err, ErrMissingUnits) {
			p.logger.Warn("[parser] %s (%s, %s): no units in payload", src.PropertyName, src.City, src.State)
		} else {
			p.logger.Warn("[parser] %s (%s, %s): %v", src.PropertyName, src.City, src.State, err)
		}
		return Result{}
	}

	units, errs := payload.drafts(src, p.accept)
	for _, e := range errs {
		p.logger.Warn("[parser] %s: skipping malformed unit: %v", src.PropertyName, e)
	}

	sort.SliceStable(units, func(i, j int) bool { return units[i].AptName < units[j].AptName })

	p.logger.Debug("[parser] %s: %s payload, %d units (%d skipped)",
		src.PropertyName, payload.Schema(), len(units), len(errs))
	return Result{Schema: payload.Schema(), Units: units, Skipped: len(errs)}
}

func (p *Parser) accept(label string) bool {
	if len(p.unitPrefixes) == 0 {
		return true
	}
	for _, prefix := range p.unitPrefixes {
		if strings.HasPrefix(label, prefix) {
			return true
		}
	}
	return false
}
