package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"rent-portfolio/models"
	"rent-portfolio/utils"
)

// missingEndpoint is the placeholder the metadata sheet uses for
// properties without a known endpoint.
const missingEndpoint = "Nothing"

// PropertyColumns names the metadata columns holding the property name and
// its API endpoint.
type PropertyColumns struct {
	Name     string
	Endpoint string
}

// LoadProperties reads the property metadata CSV at path. A missing file is
// an error since there is nothing to scrape.
func LoadProperties(filePath string, cols PropertyColumns, logger *utils.Logger) ([]models.Property, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("properties: open %q: %w", filePath, err)
	}
	defer f.Close()

	props, err := ReadProperties(f, cols, logger)
	if err != nil {
		return nil, fmt.Errorf("properties: read %q: %w", filePath, err)
	}
	return props, nil
}

// ReadProperties parses property metadata. Blank rows, repeated header
// rows, rows without a usable endpoint and duplicate endpoints are dropped.
func ReadProperties(r io.Reader, cols PropertyColumns, logger *utils.Logger) ([]models.Property, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	stateIdx, ok := indexOf(header, "state")
	if !ok {
		return nil, fmt.Errorf("missing %q column", "state")
	}
	cityIdx, ok := indexOf(header, "city")
	if !ok {
		return nil, fmt.Errorf("missing %q column", "city")
	}
	endpointIdx, ok := indexOf(header, cols.Endpoint)
	if !ok {
		return nil, fmt.Errorf("missing %q column", cols.Endpoint)
	}
	nameIdx, hasName := indexOf(header, cols.Name)
	if !hasName {
		logger.Warn("[properties] No %q column, property names will come from the payloads", cols.Name)
	}

	seen := utils.NewKeySet()
	var props []models.Property
	skipped := 0

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blankRecord(rec) {
			continue
		}

		field := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		state, city, endpoint := field(stateIdx), field(cityIdx), field(endpointIdx)
		if state == "state" {
			continue
		}
		if endpoint == "" || endpoint == missingEndpoint {
			skipped++
			continue
		}
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			logger.Warn("[properties] Skipped %s, %s - invalid endpoint: %s", city, state, endpoint)
			skipped++
			continue
		}
		if !seen.Add(endpoint) {
			skipped++
			continue
		}

		name := ""
		if hasName {
			name = field(nameIdx)
		}
		props = append(props, models.Property{
			State:    state,
			City:     city,
			Name:     name,
			Endpoint: endpoint,
			BlockID:  path.Base(strings.TrimRight(u.Path, "/")),
		})
	}

	logger.Info("[properties] Found %d valid endpoints (skipped %d)", len(props), skipped)
	return props, nil
}
