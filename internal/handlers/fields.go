package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// numericText is a body field that browser clients send either as a string
// (form values, data attributes) or as a bare JSON number. The text is kept
// as sent; callers parse it.
type numericText string

func (t *numericText) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = numericText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = numericText(n.String())
	return nil
}

func (numericText) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		OneOf: []*huma.Schema{
			{Type: huma.TypeString},
			{Type: huma.TypeInteger},
		},
	}
}

func (t numericText) String() string {
	return strings.TrimSpace(string(t))
}

// ID parses the text as a positive record id.
func (t numericText) ID() (uint, error) {
	n, err := strconv.ParseUint(t.String(), 10, 0)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, strconv.ErrRange
	}
	return uint(n), nil
}
