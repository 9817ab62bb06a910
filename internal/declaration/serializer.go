package declaration

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stvgt/interfaces/internal/registry"
)

// Serialize renders a consumer/producer record set back into the canonical
// multi-document YAML form: one document per distinct sub_component,
// producers/consumers grouped by (host, type). It is the inverse of Parse
// for the round-trip property in spec §8 (#6) — parsing Serialize's output
// reproduces the same record set, ignoring field and document order.
func Serialize(consumers []registry.ConsumerRecord, producers []registry.ProducerRecord) (string, error) {
	subComponents := map[string]bool{}
	for _, c := range consumers {
		subComponents[c.SubComponent] = true
	}
	for _, p := range producers {
		subComponents[p.SubComponent] = true
	}
	if len(subComponents) == 0 {
		subComponents[""] = true
	}

	names := make([]string, 0, len(subComponents))
	for name := range subComponents {
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	for i, sub := range names {
		doc := rawDeclaration{
			APIVersion:   declarationAPIVersion,
			Kind:         declarationKind,
			SubComponent: sub,
			Producers:    groupProducers(producers, sub),
			Consumers:    groupConsumers(consumers, sub),
		}

		out, err := yaml.Marshal(&doc)
		if err != nil {
			return "", err
		}
		if i > 0 {
			builder.WriteString("---\n")
		}
		builder.Write(out)
	}

	return builder.String(), nil
}

type groupKey struct {
	host string
	typ  string
}

func groupProducers(records []registry.ProducerRecord, sub string) []rawGroup {
	order := []groupKey{}
	byKey := map[groupKey][]rawValue{}
	for _, r := range records {
		if r.SubComponent != sub {
			continue
		}
		key := groupKey{host: r.Host, typ: r.Type}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], rawValue{
			Primary:    r.Primary,
			Secondary:  r.Secondary,
			Tertiary:   r.Tertiary,
			Deprecated: r.Deprecated,
		})
	}
	return buildGroups(order, byKey)
}

func groupConsumers(records []registry.ConsumerRecord, sub string) []rawGroup {
	order := []groupKey{}
	byKey := map[groupKey][]rawValue{}
	for _, r := range records {
		if r.SubComponent != sub {
			continue
		}
		key := groupKey{host: r.Host, typ: r.Type}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], rawValue{
			Primary:   r.Primary,
			Secondary: r.Secondary,
			Tertiary:  r.Tertiary,
			Optional:  r.Optional,
		})
	}
	return buildGroups(order, byKey)
}

func buildGroups(order []groupKey, byKey map[groupKey][]rawValue) []rawGroup {
	if len(order) == 0 {
		return nil
	}
	groups := make([]rawGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, rawGroup{
			Host:   key.host,
			Type:   key.typ,
			Values: byKey[key],
		})
	}
	return groups
}
