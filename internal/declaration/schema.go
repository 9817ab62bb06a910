package declaration

// rawDeclaration mirrors the InterfaceDeclaration document schema from
// spec §4.1. Fields use yaml.v3 tags; unrecognized fields are ignored by
// yaml.v3's default decode behavior, which is exactly the
// forward-compatibility contract the spec calls for.
type rawDeclaration struct {
	APIVersion   int        `yaml:"apiVersion"`
	Kind         string     `yaml:"kind"`
	SubComponent string     `yaml:"sub-component,omitempty"`
	Producers    []rawGroup `yaml:"producers,omitempty"`
	Consumers    []rawGroup `yaml:"consumers,omitempty"`
}

// rawGroup is a producer-group or consumer-group: host/type plus the
// cross-product values list.
type rawGroup struct {
	Host   string     `yaml:"host"`
	Type   string     `yaml:"type"`
	Values []rawValue `yaml:"values"`
}

// rawValue carries the union of producer-value and consumer-value fields.
// Only one of Deprecated/Optional is meaningful depending on whether the
// enclosing group came from the producers or consumers list; the other is
// simply left at its default.
type rawValue struct {
	Primary    string `yaml:"primary,omitempty"`
	Secondary  string `yaml:"secondary,omitempty"`
	Tertiary   string `yaml:"tertiary,omitempty"`
	Deprecated bool   `yaml:"deprecated,omitempty"`
	Optional   bool   `yaml:"optional,omitempty"`
}

const declarationKind = "InterfaceDeclaration"
const declarationAPIVersion = 1
