// Package graphdoc defines the portable document form of a graph: a named
// set of vertex and edge declarations that can be validated, serialized to
// YAML or JSON, built into a live graph, and captured back from one.
package graphdoc

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	// Validation limits
	MaxNameLength    = 100
	MaxElementLength = 200
	MaxVertices      = 100000
	MaxEdges         = 500000
	MaxProperties    = 100

	namePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
)

func init() {
	validate = validator.New()
}

// Document describes one graph. An empty vertex list is a valid document;
// it builds an empty graph.
type Document struct {
	Name     string    `yaml:"name" json:"name" validate:"required,min=1,max=100"`
	Directed bool      `yaml:"directed" json:"directed"`
	Vertices []string  `yaml:"vertices,omitempty" json:"vertices,omitempty" validate:"omitempty,dive,min=1,max=200"`
	Edges    []EdgeDoc `yaml:"edges,omitempty" json:"edges,omitempty" validate:"omitempty,dive"`
}

// EdgeDoc declares one edge between two vertex elements. A nil Weight means
// the engine resolves it at insertion time.
type EdgeDoc struct {
	Element    string         `yaml:"element" json:"element" validate:"required,min=1,max=200"`
	From       string         `yaml:"from" json:"from" validate:"required,min=1,max=200"`
	To         string         `yaml:"to" json:"to" validate:"required,min=1,max=200"`
	Weight     *float64       `yaml:"weight,omitempty" json:"weight,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty" validate:"omitempty,max=100"`
}

// Validate checks the document structurally: tag constraints first, then
// name shape, duplicate elements, and endpoint references.
func (d *Document) Validate() error {
	if d == nil {
		return errors.New("document cannot be nil")
	}

	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}

	if !namePattern.MatchString(d.Name) {
		return fmt.Errorf("Name: '%s' contains invalid characters (only alphanumeric, underscore, and hyphen allowed)", d.Name)
	}
	if len(d.Vertices) > MaxVertices {
		return fmt.Errorf("Vertices: maximum %d vertices allowed, got %d", MaxVertices, len(d.Vertices))
	}
	if len(d.Edges) > MaxEdges {
		return fmt.Errorf("Edges: maximum %d edges allowed, got %d", MaxEdges, len(d.Edges))
	}

	verts := make(map[string]bool, len(d.Vertices))
	for i, el := range d.Vertices {
		if verts[el] {
			return fmt.Errorf("Vertices: duplicate element '%s' at index %d", el, i)
		}
		verts[el] = true
	}

	edges := make(map[string]bool, len(d.Edges))
	for i, e := range d.Edges {
		if edges[e.Element] {
			return fmt.Errorf("Edges: duplicate element '%s' at index %d", e.Element, i)
		}
		edges[e.Element] = true

		if !verts[e.From] {
			return fmt.Errorf("Edges: edge '%s' references unknown vertex '%s'", e.Element, e.From)
		}
		if !verts[e.To] {
			return fmt.Errorf("Edges: edge '%s' references unknown vertex '%s'", e.Element, e.To)
		}
		if len(e.Properties) > MaxProperties {
			return fmt.Errorf("Edges: edge '%s' carries more than %d properties", e.Element, MaxProperties)
		}
	}

	return nil
}

// formatValidationError converts validator errors to a user-facing format.
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
