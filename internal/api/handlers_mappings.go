package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/bffgate/models"
)

// listMappings returns all response and request mappings.
func (s *Server) listMappings(c echo.Context) error {
	p := s.store.Snapshot()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"responseMappings": p.ResponseMappings,
		"requestMappings":  p.RequestMappings,
	})
}

// putResponseMapping creates or replaces the mapping of a response field.
func (s *Server) putResponseMapping(c echo.Context) error {
	var m models.ResponseMapping
	if err := c.Bind(&m); err != nil {
		return BadRequestError("Invalid response mapping", err.Error())
	}
	m.TargetFieldID = c.Param("fieldId")

	if err := s.store.PutResponseMapping(m); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Response mapping saved", nil)
}

func (s *Server) removeResponseMapping(c echo.Context) error {
	if err := s.store.RemoveResponseMapping(c.Param("fieldId")); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Response mapping removed", nil)
}

// putRequestMapping creates or replaces the mapping of an upstream request field.
func (s *Server) putRequestMapping(c echo.Context) error {
	var m models.RequestMapping
	if err := c.Bind(&m); err != nil {
		return BadRequestError("Invalid request mapping", err.Error())
	}
	m.TargetEndpointID = c.Param("endpointId")
	m.TargetFieldID = c.Param("fieldId")

	if err := s.store.PutRequestMapping(m); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Request mapping saved", nil)
}

func (s *Server) removeRequestMapping(c echo.Context) error {
	target := models.RequestTarget{EndpointID: c.Param("endpointId"), FieldID: c.Param("fieldId")}
	if err := s.store.RemoveRequestMapping(target); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Request mapping removed", nil)
}
