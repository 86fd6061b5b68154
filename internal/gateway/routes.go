// Package gateway implements the stateless edge router. It forwards each
// canonical route to the owning domain service and flattens backend errors
// into a single {"error": "..."} shape.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backends.
const (
	BackendAds   = "ads"
	BackendUsers = "users"
)

// Route binds one method and chi pattern to a backend.
type Route struct {
	Method    string `yaml:"method"`
	Pattern   string `yaml:"pattern"`
	Backend   string `yaml:"backend"`
	Operation string `yaml:"operation"`
}

type routeFile struct {
	Routes []Route `yaml:"routes"`
}

// ErrInvalidRoute is returned for route tables that cannot be mounted.
var ErrInvalidRoute = errors.New("invalid route")

// DefaultRoutes returns the compiled-in route table.
func DefaultRoutes() []Route {
	return []Route{
		{http.MethodGet, "/ads", BackendAds, "list ads"},
		{http.MethodGet, "/ads/by-user", BackendAds, "list ads by user"},
		{http.MethodGet, "/ads/{id}", BackendAds, "get ad"},
		{http.MethodPost, "/ads", BackendAds, "create ad"},
		{http.MethodPut, "/ads", BackendAds, "update ad"},
		{http.MethodDelete, "/ads/by-user", BackendAds, "delete ads by user"},
		{http.MethodDelete, "/ads/{id}", BackendAds, "delete ad"},

		{http.MethodGet, "/users", BackendUsers, "list users"},
		{http.MethodGet, "/users/ads", BackendUsers, "list user ads"},
		{http.MethodGet, "/users/{id}", BackendUsers, "get user"},
		{http.MethodPost, "/users", BackendUsers, "create user"},
		{http.MethodPut, "/users", BackendUsers, "update user"},
		{http.MethodDelete, "/users", BackendUsers, "delete user"},
	}
}

// LoadRoutes reads a YAML route table from path. The file replaces the
// default table entirely.
func LoadRoutes(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes and validates a YAML route table.
func ParseRoutes(data []byte) ([]Route, error) {
	var file routeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}
	if len(file.Routes) == 0 {
		return nil, fmt.Errorf("%w: route table is empty", ErrInvalidRoute)
	}

	for i := range file.Routes {
		file.Routes[i].Method = strings.ToUpper(strings.TrimSpace(file.Routes[i].Method))
		if err := file.Routes[i].validate(); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
	}
	return file.Routes, nil
}

func (rt Route) validate() error {
	switch rt.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidRoute, rt.Method)
	}
	if !strings.HasPrefix(rt.Pattern, "/") {
		return fmt.Errorf("%w: pattern %q must start with /", ErrInvalidRoute, rt.Pattern)
	}
	if rt.Backend != BackendAds && rt.Backend != BackendUsers {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidRoute, rt.Backend)
	}
	if strings.TrimSpace(rt.Operation) == "" {
		return fmt.Errorf("%w: operation is required", ErrInvalidRoute)
	}
	return nil
}
