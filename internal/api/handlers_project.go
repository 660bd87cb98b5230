package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/bffgate/internal/engine"
	"evalgo.org/bffgate/internal/export"
	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/internal/validation"
	"evalgo.org/bffgate/models"
)

// getProject returns the current project.
func (s *Server) getProject(c echo.Context) error {
	p, v := s.store.SnapshotVersion()
	return c.JSON(http.StatusOK, ProjectResponse{Version: v, Project: p})
}

// replaceProject swaps the whole project after validating it.
func (s *Server) replaceProject(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return BadRequestError("Failed to read request body", err.Error())
	}
	p, err := project.Decode(body, project.FormatJSON)
	if err != nil {
		return BadRequestError("Invalid project document", err.Error())
	}
	if err := s.store.Replace(p); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Project replaced", nil)
}

// putPublicEndpoint creates or replaces a public endpoint.
func (s *Server) putPublicEndpoint(c echo.Context) error {
	var ep models.Endpoint
	if err := c.Bind(&ep); err != nil {
		return BadRequestError("Invalid endpoint", err.Error())
	}
	if ep.ID == "" {
		ep.ID = c.Param("id")
	}
	if ep.ID != c.Param("id") {
		return BadRequestError("ID mismatch", "body id must match the path")
	}
	issues, err := s.store.PutPublicEndpoint(ep)
	if err != nil {
		return storeError(err)
	}
	return s.changed(c, "Public endpoint saved", issues)
}

func (s *Server) removePublicEndpoint(c echo.Context) error {
	issues, err := s.store.RemovePublicEndpoint(c.Param("id"))
	if err != nil {
		return storeError(err)
	}
	return s.changed(c, "Public endpoint removed", issues)
}

// putUpstreamApi creates or replaces an upstream API with its endpoints.
func (s *Server) putUpstreamApi(c echo.Context) error {
	var api models.UpstreamApi
	if err := c.Bind(&api); err != nil {
		return BadRequestError("Invalid upstream API", err.Error())
	}
	if api.ID == "" {
		api.ID = c.Param("id")
	}
	if api.ID != c.Param("id") {
		return BadRequestError("ID mismatch", "body id must match the path")
	}
	issues, err := s.store.PutUpstreamApi(api)
	if err != nil {
		return storeError(err)
	}
	return s.changed(c, "Upstream API saved", issues)
}

func (s *Server) removeUpstreamApi(c echo.Context) error {
	issues, err := s.store.RemoveUpstreamApi(c.Param("id"))
	if err != nil {
		return storeError(err)
	}
	return s.changed(c, "Upstream API removed", issues)
}

// getPlan returns the phase plan and the dependency edges.
func (s *Server) getPlan(c echo.Context) error {
	b := export.Build(s.store.Snapshot(), s.schedulerOptions())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"plan":  b.Plan,
		"edges": b.Edges,
	})
}

// validateProject validates the posted project, or the current one when the
// body is empty.
func (s *Server) validateProject(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return BadRequestError("Failed to read request body", err.Error())
	}

	v := validation.New()
	if len(bytes.TrimSpace(body)) == 0 {
		return c.JSON(http.StatusOK, v.ValidateProject(s.store.Snapshot()))
	}

	result, err := v.ValidateProjectJSON(body)
	if err != nil {
		return BadRequestError("Invalid project document", err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// exportBundle returns the emitter bundle. ?format=yaml switches the encoding.
func (s *Server) exportBundle(c echo.Context) error {
	format := project.FormatJSON
	if f := c.QueryParam("format"); f != "" {
		parsed, err := project.ParseFormat(f)
		if err != nil {
			return BadRequestError("Invalid format", err.Error())
		}
		format = parsed
	}

	b := export.Build(s.store.Snapshot(), s.schedulerOptions())

	var buf bytes.Buffer
	if err := b.Write(&buf, format); err != nil {
		return InternalError("Failed to export project", err.Error())
	}

	contentType := echo.MIMEApplicationJSONCharsetUTF8
	if format == project.FormatYAML {
		contentType = "application/yaml"
	}
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// executeEndpoint runs a public endpoint and returns the full report.
func (s *Server) executeEndpoint(c echo.Context) error {
	var req ExecuteRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid execute request", err.Error())
	}

	report, err := s.engine.Execute(c.Request().Context(), s.store.Snapshot(), c.Param("id"), engine.Input{
		Values:      req.Values,
		Credentials: req.Credentials,
	})
	if err != nil {
		return engineError(err, report)
	}
	return c.JSON(http.StatusOK, report)
}

// changed reports a successful mutation.
func (s *Server) changed(c echo.Context, message string, issues []models.Issue) error {
	if issues == nil {
		issues = []models.Issue{}
	}
	return c.JSON(http.StatusOK, ChangeResponse{
		Message: message,
		Version: s.store.Version(),
		Issues:  issues,
	})
}
