package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/bffgate/models"
)

func (s *Server) getSecurity(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Security())
}

// putSecurity replaces the security configuration.
func (s *Server) putSecurity(c echo.Context) error {
	var sc models.SecurityConfig
	if err := c.Bind(&sc); err != nil {
		return BadRequestError("Invalid security config", err.Error())
	}
	if err := s.store.SetSecurity(sc); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Security config saved", nil)
}

// putAuthProvider selects the auth endpoint. Claim mappings are cleared when
// the provider changes.
func (s *Server) putAuthProvider(c echo.Context) error {
	var req AuthProviderRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid auth provider", err.Error())
	}
	if err := s.store.SetAuthProvider(req.APIID, req.EndpointID); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Auth provider saved", nil)
}

func (s *Server) addClaimMapping(c echo.Context) error {
	var req ClaimMappingRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestError("Invalid claim mapping", err.Error())
	}
	cm, err := s.store.AddClaimMapping(req.ClaimName, req.SourceFieldPath)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, cm)
}

func (s *Server) removeClaimMapping(c echo.Context) error {
	if err := s.store.RemoveClaimMapping(c.Param("id")); err != nil {
		return storeError(err)
	}
	return s.changed(c, "Claim mapping removed", nil)
}
