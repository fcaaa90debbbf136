package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AttributeKind distinguishes categorical from numeric attributes
type AttributeKind string

const (
	AttributeCategorical AttributeKind = "categorical"
	AttributeNumeric     AttributeKind = "numeric"
)

// DefaultNoneValue is the sentinel used for missing categorical values
const DefaultNoneValue = "None"

// ErrNonFiniteValue is returned for numeric input that is NaN or infinite
var ErrNonFiniteValue = errors.New("numeric value is not finite")

// Attribute describes one column of the reference population
type Attribute struct {
	Name string        `json:"name" yaml:"name"`
	Kind AttributeKind `json:"kind" yaml:"kind"`

	// Levels optionally fixes the leading order of a categorical domain.
	// Observed values not listed here follow in sorted order.
	Levels []string `json:"levels,omitempty" yaml:"levels,omitempty"`
	None   string   `json:"none,omitempty" yaml:"none,omitempty"`

	// Default is filled in by callers when an individual omits the attribute.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`

	// Plausible range for numeric attributes, used for advisories only.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// NoneValue returns the missing-value sentinel for a categorical attribute
func (a Attribute) NoneValue() string {
	if a.None == "" {
		return DefaultNoneValue
	}
	return a.None
}

// Schema is the ordered set of recognized attributes
type Schema struct {
	Attributes []Attribute `json:"attributes" yaml:"attributes"`
}

// Validate checks that the schema is usable for encoding
func (s *Schema) Validate() error {
	if s == nil || len(s.Attributes) == 0 {
		return fmt.Errorf("schema must define at least one attribute")
	}
	seen := make(map[string]bool, len(s.Attributes))
	for i, attr := range s.Attributes {
		if attr.Name == "" {
			return fmt.Errorf("attributes[%d].name is required", i)
		}
		if seen[attr.Name] {
			return fmt.Errorf("duplicate attribute: %s", attr.Name)
		}
		seen[attr.Name] = true

		switch attr.Kind {
		case AttributeCategorical, AttributeNumeric:
		default:
			return fmt.Errorf("attribute %s: invalid kind %q", attr.Name, attr.Kind)
		}
		if attr.Min != nil && attr.Max != nil && *attr.Min > *attr.Max {
			return fmt.Errorf("attribute %s: min exceeds max", attr.Name)
		}
	}
	return nil
}

// Index returns the column position of an attribute
func (s *Schema) Index(name string) (int, bool) {
	for i, attr := range s.Attributes {
		if attr.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Attribute looks up an attribute by name
func (s *Schema) Attribute(name string) (Attribute, bool) {
	if i, ok := s.Index(name); ok {
		return s.Attributes[i], true
	}
	return Attribute{}, false
}

// Names returns attribute names in column order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Attributes))
	for i, attr := range s.Attributes {
		names[i] = attr.Name
	}
	return names
}

// ParseRecord converts raw caller input into a Record.
// Absent attributes take the schema default; absent categoricals with no
// default are left empty and resolve to the sentinel during encoding.
// Unknown keys are ignored.
func (s *Schema) ParseRecord(raw map[string]any) (Record, error) {
	rec := NewRecord()
	for _, attr := range s.Attributes {
		value, present := raw[attr.Name]
		if !present || value == nil {
			if attr.Default == "" {
				if attr.Kind == AttributeNumeric {
					return Record{}, fmt.Errorf("attribute %s is required", attr.Name)
				}
				continue
			}
			value = attr.Default
		}

		switch attr.Kind {
		case AttributeCategorical:
			rec.Categorical[attr.Name] = strings.TrimSpace(fmt.Sprint(value))
		case AttributeNumeric:
			f, err := toFloat(value)
			if err != nil {
				return Record{}, fmt.Errorf("attribute %s: %w", attr.Name, err)
			}
			rec.Numeric[attr.Name] = f
		}
	}
	return rec, nil
}

func toFloat(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported numeric value of type %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFiniteValue, value)
	}
	return f, nil
}

func floatPtr(v float64) *float64 { return &v }

// DefaultHealthSchema returns the twelve-attribute health schema
func DefaultHealthSchema() *Schema {
	return &Schema{
		Attributes: []Attribute{
			{Name: "Age", Kind: AttributeNumeric, Min: floatPtr(0), Max: floatPtr(120)},
			{Name: "BMI", Kind: AttributeNumeric, Min: floatPtr(0), Max: floatPtr(60)},
			{Name: "Physical_Activity_Hours_Per_Week", Kind: AttributeNumeric, Min: floatPtr(0)},
			{Name: "Chronic_Condition", Kind: AttributeCategorical, Default: DefaultNoneValue},
			{Name: "Mental_Health_Score", Kind: AttributeNumeric, Min: floatPtr(1), Max: floatPtr(10)},
			{Name: "Sleep_Hours_Per_Night", Kind: AttributeNumeric, Min: floatPtr(0), Max: floatPtr(24)},
			{Name: "Diet_Type", Kind: AttributeCategorical},
			{Name: "Smoking_Habit", Kind: AttributeCategorical, Default: "Non-Smoker",
				Levels: []string{"Non-Smoker", "Occasional", "Smoker"}},
			{Name: "Alcohol_Consumption_Per_Week", Kind: AttributeNumeric, Default: "0", Min: floatPtr(0)},
			{Name: "Menstrual_Cycle_Regularity", Kind: AttributeCategorical, Default: "Regular",
				Levels: []string{"Regular", "Irregular"}},
			{Name: "Stress_Level", Kind: AttributeCategorical,
				Levels: []string{"Low", "Medium", "High"}},
			{Name: "Tech_Engagement", Kind: AttributeCategorical, Default: "Medium",
				Levels: []string{"Low", "Medium", "High"}},
		},
	}
}
