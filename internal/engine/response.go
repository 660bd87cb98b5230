package engine

import (
	"fmt"

	"evalgo.org/bffgate/internal/extract"
	"evalgo.org/bffgate/models"
)

// buildResponse evaluates the response mappings against the recorded
// responses. Fields that cannot be produced are set to nil and reported.
func (x *execution) buildResponse() {
	for _, f := range x.endpoint.ResponseSchema {
		x.report.Response[f.Name] = nil

		m, ok := x.resolver.ResponseMappingFor(f.ID)
		if !ok {
			x.issue(models.IssueUnmappedField, models.SeverityWarning, "", f.ID,
				fmt.Sprintf("response field %s has no mapping", f.Name))
			continue
		}

		res, ok := x.report.Results[m.SourceEndpointID]
		if !ok {
			x.issue(models.IssueFieldExtraction, models.SeverityWarning, m.SourceEndpointID, f.ID,
				fmt.Sprintf("source %s of field %s was not executed", m.Source(), f.Name))
			continue
		}
		if res.Status != models.StatusSucceeded {
			x.issue(models.IssueFieldExtraction, models.SeverityWarning, m.SourceEndpointID, f.ID,
				fmt.Sprintf("field %s left absent: source %s %s", f.Name, m.Source(), res.Status))
			continue
		}

		v, ok := extract.Get(res.Body, m.SourceFieldPath)
		if !ok {
			x.issue(models.IssueFieldExtraction, models.SeverityWarning, m.SourceEndpointID, f.ID,
				fmt.Sprintf("path %s not found in response of %s", m.SourceFieldPath, m.Source()))
			continue
		}
		x.report.Response[f.Name] = v
	}
}
