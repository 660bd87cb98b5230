package store

import (
	"fmt"

	"evalgo.org/bffgate/models"
)

// PruneOrphans drops every mapping whose target or source no longer exists in
// p and returns one validation issue per dropped mapping. An auth provider
// that vanished is cleared and security is disabled.
func PruneOrphans(p *models.Project) []models.Issue {
	var issues []models.Issue
	report := func(endpointID, fieldID, format string, args ...interface{}) {
		issues = append(issues, models.Issue{
			Kind:       models.IssueValidation,
			Severity:   models.SeverityWarning,
			EndpointID: endpointID,
			FieldID:    fieldID,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	keptResp := make([]models.ResponseMapping, 0, len(p.ResponseMappings))
	for _, m := range p.ResponseMappings {
		if _, ok := p.ResponseFieldOwner(m.TargetFieldID); !ok {
			report("", m.TargetFieldID, "response mapping dropped: target field %s no longer exists", m.TargetFieldID)
			continue
		}
		if _, _, ok := p.FindUpstream(m.Source()); !ok {
			report(m.SourceEndpointID, m.TargetFieldID, "response mapping dropped: source endpoint %s no longer exists", m.Source())
			continue
		}
		keptResp = append(keptResp, m)
	}
	p.ResponseMappings = keptResp

	keptReq := make([]models.RequestMapping, 0, len(p.RequestMappings))
	for _, m := range p.RequestMappings {
		_, target, ok := p.FindUpstream(m.Target())
		if !ok {
			report(m.TargetEndpointID, m.TargetFieldID, "request mapping dropped: target endpoint %s no longer exists", m.Target())
			continue
		}
		if _, ok := models.FindField(target.RequestFields, m.TargetFieldID); !ok {
			report(m.TargetEndpointID, m.TargetFieldID, "request mapping dropped: target field %s no longer exists", m.TargetFieldID)
			continue
		}
		switch src := m.Source.(type) {
		case models.PublicSource:
			if !publicInputExists(p, src.FieldID) {
				report(m.TargetEndpointID, m.TargetFieldID, "request mapping dropped: public field %s no longer exists", src.FieldID)
				continue
			}
		case models.UpstreamSource:
			if _, _, ok := p.FindUpstream(src.Ref()); !ok {
				report(m.TargetEndpointID, m.TargetFieldID, "request mapping dropped: source endpoint %s no longer exists", src.Ref())
				continue
			}
		}
		keptReq = append(keptReq, m)
	}
	p.RequestMappings = keptReq

	sc := p.SecurityConfig
	if sc.AuthAPIID != "" || sc.AuthEndpointID != "" {
		if _, _, ok := p.FindUpstream(sc.AuthRef()); !ok {
			report(sc.AuthEndpointID, "", "auth provider %s no longer exists, security disabled and claims cleared", sc.AuthRef())
			sc = sc.WithAuthProvider("", "")
			sc.Enabled = false
			p.SecurityConfig = sc
		}
	}

	return issues
}

func publicInputExists(p *models.Project, fieldID string) bool {
	for _, ep := range p.PublicEndpoints {
		if _, ok := models.FindField(ep.RequestSchema, fieldID); ok {
			return true
		}
	}
	return false
}
