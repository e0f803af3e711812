package parser

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"rent-portfolio/utils"
)

// flexString accepts a JSON string or number. Vendors are inconsistent
// about whether identifiers are quoted.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or numeric string and truncates it to an
// integer. Anything else, including NaN, infinities and values beyond
// 32 bits, decodes as absent instead of failing the unit.
type flexInt struct {
	value int
	valid bool
}

func (i *flexInt) UnmarshalJSON(b []byte) error {
	*i = flexInt{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ""))
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n, ok := utils.TruncateInt(f)
	if !ok {
		return nil
	}
	*i = flexInt{value: n, valid: true}
	return nil
}

// Ptr returns the value as an optional int.
func (i flexInt) Ptr() *int {
	if !i.valid {
		return nil
	}
	v := i.value
	return &v
}
