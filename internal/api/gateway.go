package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/engine"
	"evalgo.org/bffgate/internal/extract"
	"evalgo.org/bffgate/internal/transport"
	"evalgo.org/bffgate/models"
)

// maxBodySize bounds request bodies on the public and login routes.
const maxBodySize = "1M"

// GatewayResponse wraps the public response when the report is attached.
type GatewayResponse struct {
	Data   map[string]interface{}  `json:"data"`
	Report *models.ExecutionReport `json:"report,omitempty"`
}

// handleGateway serves every public endpoint of the current project.
func (s *Server) handleGateway(c echo.Context) error {
	p := s.store.Snapshot()

	m := matchRoute(p, c.Request().Method, c.Request().URL.Path)
	if m.endpoint == nil {
		if m.methodMismatch {
			return echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed for "+c.Request().URL.Path)
		}
		return NotFoundError("Endpoint", c.Request().URL.Path)
	}

	values, err := readPublicInput(c, m.endpoint, m.params)
	if err != nil {
		return err
	}

	report, err := s.engine.Execute(c.Request().Context(), p, m.endpoint.ID, engine.Input{Values: values})
	if err != nil {
		return engineError(err, report)
	}

	c.Response().Header().Set("X-Execution-ID", report.ID)
	if s.includeReport(c) {
		return c.JSON(http.StatusOK, GatewayResponse{Data: report.Response, Report: report})
	}
	return c.JSON(http.StatusOK, report.Response)
}

func (s *Server) includeReport(c echo.Context) bool {
	if s.config.Gateway.IncludeReport {
		return true
	}
	return s.config.Server.Debug && c.QueryParam("_report") == "true"
}

// readPublicInput collects the values of the endpoint's request schema from
// the path, query, headers and JSON body. Values are keyed by field ID.
func readPublicInput(c echo.Context, ep *models.Endpoint, params map[string]string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(ep.RequestSchema))

	var body []byte
	if c.Request().Body != nil {
		data, err := io.ReadAll(c.Request().Body)
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				return nil, he
			}
			return nil, BadRequestError("Failed to read request body", err.Error())
		}
		if len(strings.TrimSpace(string(data))) > 0 {
			if !json.Valid(data) {
				return nil, BadRequestError("Invalid request body", "body must be a JSON document")
			}
			body = data
		}
	}

	defaultLoc := transport.DefaultLocation(string(ep.Method))
	missing := map[string]string{}

	for _, f := range ep.RequestSchema {
		loc := f.Location
		if loc == "" {
			loc = defaultLoc
		}

		var (
			v  interface{}
			ok bool
		)
		switch loc {
		case models.LocationPath:
			var s string
			s, ok = params[f.Name]
			v = s
		case models.LocationQuery:
			if _, present := c.QueryParams()[f.Name]; present {
				v, ok = c.QueryParam(f.Name), true
			}
		case models.LocationHeader:
			if h := c.Request().Header.Get(f.Name); h != "" {
				v, ok = h, true
			}
		case models.LocationBody:
			if body != nil {
				v, ok = extract.Get(body, f.WirePath())
			}
		}

		if ok {
			values[f.ID] = v
		} else if f.Required {
			missing[f.Name] = "required " + string(loc) + " value is missing"
		}
	}

	if len(missing) > 0 {
		return nil, ValidationError("Missing request values", missing)
	}
	return values, nil
}

// LoginRequest carries the credentials forwarded to the auth endpoint.
type LoginRequest map[string]interface{}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	AccessToken string                 `json:"access_token"`
	TokenType   string                 `json:"token_type"`
	ExpiresIn   int                    `json:"expires_in"`
	ExpiresAt   string                 `json:"expires_at"`
	Claims      map[string]interface{} `json:"claims"`
}

// login exchanges credentials for a gateway token.
func (s *Server) login(c echo.Context) error {
	p := s.store.Snapshot()
	if !p.SecurityConfig.Enabled {
		return NotFoundError("Endpoint", c.Request().URL.Path)
	}

	var creds LoginRequest
	if err := c.Bind(&creds); err != nil {
		return BadRequestError("Invalid credentials payload", err.Error())
	}

	token, err := s.engine.Authenticate(c.Request().Context(), p, creds)
	if err != nil {
		s.logger.WithError(err).Warn("Login failed")
		if errors.Is(err, engine.ErrAuthFailed) {
			return UnauthorizedError("Authentication failed", "invalid credentials")
		}
		return engineError(err, nil)
	}

	s.logger.WithFields(log.Fields{
		"claims":     len(token.Claims),
		"expires_at": token.ExpiresAt,
	}).Debug("Login succeeded")

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   int(token.ExpiresAt.Sub(token.IssuedAt).Seconds()),
		ExpiresAt:   token.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Claims:      token.Claims,
	})
}
