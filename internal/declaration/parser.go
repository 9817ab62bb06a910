package declaration

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/stvgt/interfaces/internal/registry"
)

// Result is the flattened output of parsing one declaration stream: every
// consumer and producer record across every document, with component
// stamped from the caller (the registry-level name is not part of the
// declaration document itself — it comes from the submission path).
type Result struct {
	Consumers []registry.ConsumerRecord
	Producers []registry.ProducerRecord
}

// Parse reads a (possibly multi-document) YAML stream and produces the
// flattened consumer/producer record lists for the given component, or a
// *registry.Error of kind MalformedDocument or SchemaViolation.
func Parse(r io.Reader, component string) (Result, *registry.Error) {
	docs, perr := decodeDocuments(r)
	if perr != nil {
		return Result{}, perr
	}

	var result Result
	for i, doc := range docs {
		if verr := validate(doc, i); verr != nil {
			return Result{}, verr
		}
		expandDocument(component, doc, &result)
	}
	return result, nil
}

// decodeDocuments deserializes every YAML document in the stream. A
// deserialization failure anywhere in the stream is MalformedDocument, not
// SchemaViolation — it never reaches schema validation.
func decodeDocuments(r io.Reader) ([]rawDeclaration, *registry.Error) {
	dec := yaml.NewDecoder(r)
	var docs []rawDeclaration
	for {
		var doc rawDeclaration
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, registry.NewMalformedDocument(err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// validate checks one document against the schema table in spec §4.1.
func validate(doc rawDeclaration, docIndex int) *registry.Error {
	path := func(suffix string) string {
		return fmt.Sprintf("documents[%d].%s", docIndex, suffix)
	}

	if doc.APIVersion != declarationAPIVersion {
		return registry.NewSchemaViolation(path("apiVersion"),
			fmt.Sprintf("apiVersion must be exactly %d, got %d", declarationAPIVersion, doc.APIVersion))
	}
	if doc.Kind != declarationKind {
		return registry.NewSchemaViolation(path("kind"),
			fmt.Sprintf("kind must be %q, got %q", declarationKind, doc.Kind))
	}

	if verr := validateGroups(doc.Producers, path("producers")); verr != nil {
		return verr
	}
	if verr := validateGroups(doc.Consumers, path("consumers")); verr != nil {
		return verr
	}
	return nil
}

func validateGroups(groups []rawGroup, basePath string) *registry.Error {
	for i, g := range groups {
		groupPath := fmt.Sprintf("%s[%d]", basePath, i)
		if g.Host == "" {
			return registry.NewSchemaViolation(groupPath+".host", "host is required")
		}
		if g.Type == "" {
			return registry.NewSchemaViolation(groupPath+".type", "type is required")
		}
		if g.Values == nil {
			return registry.NewSchemaViolation(groupPath+".values", "values is required")
		}
	}
	return nil
}

// expandDocument flattens one validated document's producer/consumer
// groups into flat records, stamping sub_component from the enclosing
// declaration and component from the caller.
func expandDocument(component string, doc rawDeclaration, result *Result) {
	for _, g := range doc.Producers {
		for _, v := range g.Values {
			result.Producers = append(result.Producers, registry.ProducerRecord{
				Component:    component,
				SubComponent: doc.SubComponent,
				EndpointKey: registry.EndpointKey{
					Host:      g.Host,
					Type:      g.Type,
					Primary:   v.Primary,
					Secondary: v.Secondary,
					Tertiary:  v.Tertiary,
				},
				Deprecated: v.Deprecated,
			})
		}
	}
	for _, g := range doc.Consumers {
		for _, v := range g.Values {
			result.Consumers = append(result.Consumers, registry.ConsumerRecord{
				Component:    component,
				SubComponent: doc.SubComponent,
				EndpointKey: registry.EndpointKey{
					Host:      g.Host,
					Type:      g.Type,
					Primary:   v.Primary,
					Secondary: v.Secondary,
					Tertiary:  v.Tertiary,
				},
				Optional: v.Optional,
			})
		}
	}
}
