package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/stvgt/interfaces/internal/httputil"
	"github.com/stvgt/interfaces/internal/observability"
	"github.com/stvgt/interfaces/internal/registry"
)

// setInterfaceYAML implements PUT /api/v1/components/{component}/interfaces/yaml:
// accepts a multipart yaml_file upload, parses it with the Declaration
// Parser, and runs it through the Component Sync Protocol.
func (s *Server) setInterfaceYAML(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	component, err := httputil.ParsePathString(r, "component")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	ctx = observability.WithComponent(ctx, component)

	data, err := httputil.ParseSingleMultipartFile(r, "yaml_file")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, regErr := parseDeclaration(bytes.NewReader(data), component)
	if regErr != nil {
		s.writeRegistryError(ctx, w, regErr)
		return
	}

	if regErr := s.protocol.SetInterface(ctx, component, result.Consumers, result.Producers); regErr != nil {
		s.writeRegistryError(ctx, w, regErr)
		return
	}

	httputil.WriteSuccess(w, setInterfaceResponse{})
}

// getComponents implements GET /api/v1/components.
func (s *Server) getComponents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	components, regErr := s.aggregator.GetComponents(ctx)
	if regErr != nil {
		s.writeRegistryError(ctx, w, regErr)
		return
	}

	httputil.WriteSuccess(w, getComponentsResponse{Components: components})
}

// writeRegistryError maps the registry's typed error taxonomy to the HTTP
// status codes required by spec §7: 400 for malformed/schema/duplicate
// errors, 409 for referential conflicts, 503 for store unavailability.
func (s *Server) writeRegistryError(ctx context.Context, w http.ResponseWriter, regErr *registry.Error) {
	status := httpStatusFor(regErr.Kind)
	observability.FromContext(ctx).WithFields(map[string]interface{}{
		"kind": regErr.Kind.String(),
		"code": regErr.Code,
	}).Warn(regErr.Message)

	httputil.WriteJSON(w, status, newErrorResponse(regErr))
}

func httpStatusFor(kind registry.Kind) int {
	switch kind {
	case registry.KindMalformedDocument, registry.KindSchemaViolation, registry.KindDuplicateEntry:
		return http.StatusBadRequest
	case registry.KindReferentialConflict:
		return http.StatusConflict
	case registry.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
