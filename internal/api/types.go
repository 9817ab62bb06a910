package api

import "github.com/stvgt/interfaces/internal/registry"

// setInterfaceResponse is the 200 response body for the PUT interfaces
// endpoint: an empty object per spec §6.
type setInterfaceResponse struct{}

// getComponentsResponse is the 200 response body for GET /api/v1/components.
type getComponentsResponse struct {
	Components []registry.Component `json:"components"`
}

// errorResponse is the JSON body for a 400/409/5xx response, identifying
// the error kind so clients can distinguish malformed input from a
// referential conflict.
type errorResponse struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Path      string `json:"path,omitempty"`
	Host      string `json:"endpoint_host,omitempty"`
	Type      string `json:"endpoint_type,omitempty"`
	Primary   string `json:"endpoint_primary,omitempty"`
	Secondary string `json:"endpoint_secondary,omitempty"`
	Tertiary  string `json:"endpoint_tertiary,omitempty"`
}

func newErrorResponse(regErr *registry.Error) errorResponse {
	resp := errorResponse{Kind: regErr.Kind.String(), Message: regErr.Message, Code: regErr.Code, Path: regErr.Path}
	if regErr.Endpoint != nil {
		resp.Host = regErr.Endpoint.Host
		resp.Type = regErr.Endpoint.Type
		resp.Primary = regErr.Endpoint.Primary
		resp.Secondary = regErr.Endpoint.Secondary
		resp.Tertiary = regErr.Endpoint.Tertiary
	}
	return resp
}
