package graphdoc

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses and validates a YAML document.
func DecodeYAML(data []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("graphdoc: parse yaml: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("graphdoc: %w", err)
	}
	return &d, nil
}

// DecodeJSON parses and validates a JSON document.
func DecodeJSON(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("graphdoc: parse json: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("graphdoc: %w", err)
	}
	return &d, nil
}

// EncodeYAML serializes the document as YAML.
func (d *Document) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// EncodeJSON serializes the document as indented JSON.
func (d *Document) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
