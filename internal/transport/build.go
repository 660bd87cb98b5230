package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"evalgo.org/bffgate/internal/extract"
	"evalgo.org/bffgate/models"
)

// BuildCall assembles the call for an upstream endpoint. values holds the
// resolved request field values keyed by field ID; fields without a value are
// left out of the call.
func BuildCall(api *models.UpstreamApi, ep *models.UpstreamEndpoint, values map[string]interface{}) (Call, error) {
	call := Call{
		Method:  strings.ToUpper(ep.Method),
		Query:   url.Values{},
		Headers: map[string]string{},
	}

	path := ep.Path
	defaultLoc := DefaultLocation(ep.Method)

	for _, f := range ep.RequestFields {
		v, ok := values[f.ID]
		if !ok {
			continue
		}

		loc := f.Location
		if loc == "" {
			loc = defaultLoc
		}

		switch loc {
		case models.LocationPath:
			replaced, found := substitutePath(path, f.Name, url.PathEscape(Stringify(v)))
			if !found {
				return Call{}, fmt.Errorf("path parameter %s not found in %s", f.Name, ep.Path)
			}
			path = replaced
		case models.LocationQuery:
			call.Query.Add(f.Name, Stringify(v))
		case models.LocationHeader:
			call.Headers[f.Name] = Stringify(v)
		case models.LocationBody:
			body, err := extract.Set(call.Body, f.WirePath(), v)
			if err != nil {
				return Call{}, fmt.Errorf("failed to set body field %s: %w", f.ID, err)
			}
			call.Body = body
		default:
			return Call{}, fmt.Errorf("unsupported location %q for field %s", loc, f.ID)
		}
	}

	if call.Body != nil {
		call.Headers["Content-Type"] = "application/json"
	}

	call.URL = strings.TrimRight(api.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	return call, nil
}

// DefaultLocation is where parameters without an explicit location go:
// query for GET and DELETE, body otherwise.
func DefaultLocation(method string) models.FieldLocation {
	switch strings.ToUpper(method) {
	case "GET", "DELETE", "HEAD":
		return models.LocationQuery
	default:
		return models.LocationBody
	}
}

// substitutePath replaces {name} or :name segments.
func substitutePath(path, name, value string) (string, bool) {
	if brace := "{" + name + "}"; strings.Contains(path, brace) {
		return strings.ReplaceAll(path, brace, value), true
	}

	segments := strings.Split(path, "/")
	found := false
	for i, seg := range segments {
		if seg == ":"+name {
			segments[i] = value
			found = true
		}
	}
	return strings.Join(segments, "/"), found
}

// Stringify renders a JSON value for use in a URL or header.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
