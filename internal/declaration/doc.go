// Package declaration implements the Declaration Parser (spec §4.1): it
// reads a multi-document YAML stream, validates each document against the
// InterfaceDeclaration schema, and flattens the producer/consumer groups
// into registry.ConsumerRecord and registry.ProducerRecord lists.
//
// Unknown fields are ignored silently (forward-compatibility with future
// declaration versions is part of the contract, not an oversight). Missing
// optional fields take the defaults documented in the schema table.
package declaration
