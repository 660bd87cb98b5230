package api

import (
	"strings"

	"evalgo.org/bffgate/models"
)

// route is a public endpoint path split into segments. Segments written as
// {name} or :name capture the request segment under name.
type route struct {
	endpoint *models.Endpoint
	segments []string
	params   int
}

func compileRoute(ep *models.Endpoint) route {
	segs := splitPath(ep.Path)
	r := route{endpoint: ep, segments: segs}
	for _, s := range segs {
		if _, ok := paramName(s); ok {
			r.params++
		}
	}
	return r
}

func (r route) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(r.segments) {
		return nil, false
	}
	params := make(map[string]string, r.params)
	for i, s := range r.segments {
		if name, ok := paramName(s); ok {
			if segs[i] == "" {
				return nil, false
			}
			params[name] = segs[i]
			continue
		}
		if s != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func paramName(seg string) (string, bool) {
	if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") && len(seg) > 2 {
		return seg[1 : len(seg)-1], true
	}
	if strings.HasPrefix(seg, ":") && len(seg) > 1 {
		return seg[1:], true
	}
	return "", false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return []string{}
	}
	return strings.Split(p, "/")
}

// routeMatch is the outcome of resolving a request against the public endpoints.
type routeMatch struct {
	endpoint *models.Endpoint
	params   map[string]string

	// methodMismatch is set when some endpoint matched the path but none the method
	methodMismatch bool
}

// matchRoute finds the public endpoint serving method and path. Literal
// segments win over parameters when several endpoints match.
func matchRoute(p *models.Project, method, path string) routeMatch {
	segs := splitPath(path)

	var best *route
	var bestParams map[string]string
	pathMatched := false

	for i := range p.PublicEndpoints {
		r := compileRoute(&p.PublicEndpoints[i])
		params, ok := r.match(segs)
		if !ok {
			continue
		}
		pathMatched = true
		if !strings.EqualFold(string(r.endpoint.Method), method) {
			continue
		}
		if best == nil || r.params < best.params {
			rc := r
			best = &rc
			bestParams = params
		}
	}

	if best == nil {
		return routeMatch{methodMismatch: pathMatched}
	}
	return routeMatch{endpoint: best.endpoint, params: bestParams}
}
