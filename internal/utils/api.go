package utils

import (
	"net/url"
	"strings"

	"github.com/paulmach/orb"

	"ubmap.app/internal/geo"
)

// ParseBoolParam reports whether the key is set to a truthy value
// (1, t, true, yes, on). Anything else is false.
func ParseBoolParam(params url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(params.Get(key))) {
	case "1", "t", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ParseTypesParam returns the place types requested through "types"
// (comma separated) or, when absent, "type".
func ParseTypesParam(params url.Values) []string {
	raw := params.Get("types")
	if strings.TrimSpace(raw) == "" {
		raw = params.Get("type")
	}

	var types []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// ParseBBoxParam parses an optional "minx,miny,maxx,maxy" bbox. A nil bound
// means the parameter was absent.
func ParseBBoxParam(params url.Values, key string, fieldErrors map[string][]string) (*orb.Bound, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return nil, fieldErrors
	}

	b, err := geo.ParseBound(val)
	if err == nil {
		err = ValidateBound(b)
	}
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], err.Error())
		return nil, fieldErrors
	}
	return &b, fieldErrors
}
