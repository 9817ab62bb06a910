// Package registry defines the data model shared by every layer of the
// interface registry: the endpoint key, consumer/producer records, and the
// grouped component view returned by the read path.
package registry

// EndpointKey identifies an interface endpoint fleet-wide, independent of
// who produces or consumes it.
type EndpointKey struct {
	Host      string `json:"host"`
	Type      string `json:"itype"`
	Primary   string `json:"iprimary"`
	Secondary string `json:"isecondary"`
	Tertiary  string `json:"itertiary"`
}

// ConsumerRecord is a single consumer row: an endpoint key owned by a
// (component, sub_component) pair, with the optional flag.
type ConsumerRecord struct {
	Component    string `json:"component"`
	SubComponent string `json:"sub_component"`
	EndpointKey
	Optional bool `json:"optional"`
}

// ProducerRecord is a single producer row: an endpoint key owned by a
// (component, sub_component) pair, with the deprecated flag.
type ProducerRecord struct {
	Component    string `json:"component"`
	SubComponent string `json:"sub_component"`
	EndpointKey
	Deprecated bool `json:"deprecated"`
}

// Component groups every row belonging to one component name, as returned
// by the Read Aggregator.
type Component struct {
	Name      string           `json:"name"`
	Consumers []ConsumerRecord `json:"consumers"`
	Producers []ProducerRecord `json:"producers"`
}

// sixTuple is the preflight uniqueness key for consumers and producers:
// the 7-tuple minus the flag (optional/deprecated is not part of it).
type sixTuple struct {
	SubComponent string
	EndpointKey
}

func consumerSixTuple(r ConsumerRecord) sixTuple {
	return sixTuple{SubComponent: r.SubComponent, EndpointKey: r.EndpointKey}
}

func producerSixTuple(r ProducerRecord) sixTuple {
	return sixTuple{SubComponent: r.SubComponent, EndpointKey: r.EndpointKey}
}

// DuplicateConsumerEntries reports the first pair of consumer records that
// share the 6-tuple (sub_component + endpoint key) while the preflight
// check in §4.3 requires uniqueness regardless of the optional flag.
func DuplicateConsumerEntries(records []ConsumerRecord) (ConsumerRecord, ConsumerRecord, bool) {
	seen := make(map[sixTuple]ConsumerRecord, len(records))
	for _, r := range records {
		key := consumerSixTuple(r)
		if prev, ok := seen[key]; ok {
			return prev, r, true
		}
		seen[key] = r
	}
	return ConsumerRecord{}, ConsumerRecord{}, false
}

// DuplicateProducerEntries is the producer-side equivalent of
// DuplicateConsumerEntries.
func DuplicateProducerEntries(records []ProducerRecord) (ProducerRecord, ProducerRecord, bool) {
	seen := make(map[sixTuple]ProducerRecord, len(records))
	for _, r := range records {
		key := producerSixTuple(r)
		if prev, ok := seen[key]; ok {
			return prev, r, true
		}
		seen[key] = r
	}
	return ProducerRecord{}, ProducerRecord{}, false
}
