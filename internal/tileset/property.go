package tileset

import (
	"fmt"
	"strconv"
)

// PropertyType is the declared type of a Tiled custom property.
type PropertyType string

const (
	PropertyString PropertyType = "string"
	PropertyBool   PropertyType = "bool"
	PropertyInt    PropertyType = "int"
	PropertyFloat  PropertyType = "float"
	PropertyColor  PropertyType = "color"
	PropertyFile   PropertyType = "file"
	PropertyObject PropertyType = "object"
	PropertyClass  PropertyType = "class"
)

// SolidProperty is the property name that marks a tile as solid.
const SolidProperty = "solid"

// Property is a named, typed value attached to a tile or tileset.
// Properties of unknown name or type are kept as-is.
type Property struct {
	Name  string       `json:"name"`
	Type  PropertyType `json:"type"`
	Value string       `json:"value"`
}

// Bool parses the value as a boolean.
func (p Property) Bool() (bool, error) {
	b, err := strconv.ParseBool(p.Value)
	if err != nil {
		return false, fmt.Errorf("property %q: %w", p.Name, err)
	}
	return b, nil
}

// Int parses the value as an integer.
func (p Property) Int() (int, error) {
	n, err := strconv.Atoi(p.Value)
	if err != nil {
		return 0, fmt.Errorf("property %q: %w", p.Name, err)
	}
	return n, nil
}

// Float parses the value as a float.
func (p Property) Float() (float64, error) {
	f, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("property %q: %w", p.Name, err)
	}
	return f, nil
}

// Properties is an ordered property list.
type Properties []Property

// Get returns the first property with the given name.
func (ps Properties) Get(name string) (Property, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Has reports whether a property with the given name exists.
func (ps Properties) Has(name string) bool {
	_, ok := ps.Get(name)
	return ok
}

// normalizeType maps an empty declared type to Tiled's default.
func normalizeType(t string) PropertyType {
	if t == "" {
		return PropertyString
	}
	return PropertyType(t)
}
