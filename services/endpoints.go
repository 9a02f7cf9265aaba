package services

import (
	"fmt"
	"sort"

	"github.com/cygnusgroup/backoffice/core"
)

// BaseEndpoints returns framework-agnostic endpoint descriptions for the
// login surface. Adapters attach their own handlers by OperationID.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		{
			Path:   "/login",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "login",
				Description: "Verify email and password, reconcile the profile and start a session",
			},
		},
		{
			Path:   "/logout",
			Method: "POST",
			Metadata: core.EndpointMetadata{
				OperationID: "logout",
				Description: "Destroy the current session",
			},
		},
		{
			Path:   "/session",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID: "getSession",
				Description: "Get the current session",
				Protected:   true,
			},
		},
		{
			Path:   "/health",
			Method: "GET",
			Metadata: core.EndpointMetadata{
				OperationID: "health",
				Description: "Liveness probe",
			},
		},
	}
}

// EndpointRegistry holds endpoints keyed by "METHOD:PATH" and rejects
// duplicates.
type EndpointRegistry struct {
	endpoints map[string]core.Endpoint
}

// NewEndpointRegistry creates a registry with the base endpoints registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{endpoints: make(map[string]core.Endpoint)}
	for _, ep := range BaseEndpoints() {
		reg.endpoints[endpointKey(ep)] = ep
	}
	return reg
}

func endpointKey(ep core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

// Register adds endpoints from a provider. Nothing is registered when any
// of them conflicts with an existing endpoint or with each other.
func (r *EndpointRegistry) Register(p core.EndpointProvider) error {
	batch := p.GetEndpoints()

	seen := make(map[string]bool, len(batch))
	for _, ep := range batch {
		key := endpointKey(ep)
		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("duplicate endpoint: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true
	}

	for _, ep := range batch {
		r.endpoints[endpointKey(ep)] = ep
	}
	return nil
}

// Endpoints returns every registered endpoint ordered by path then method.
func (r *EndpointRegistry) Endpoints() []core.Endpoint {
	result := make([]core.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path != result[j].Path {
			return result[i].Path < result[j].Path
		}
		return result[i].Method < result[j].Method
	})
	return result
}
