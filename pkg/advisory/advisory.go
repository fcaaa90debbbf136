// Package advisory flags attribute values outside their plausible range.
// Advisories are informational and never block classification.
package advisory

import (
	"fmt"
	"strconv"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// Check returns one advisory per numeric attribute whose value falls outside
// the schema's plausible range, in schema order
func Check(schema *models.Schema, rec models.Record) []models.Advisory {
	var out []models.Advisory
	for _, attr := range schema.Attributes {
		if attr.Kind != models.AttributeNumeric || (attr.Min == nil && attr.Max == nil) {
			continue
		}
		v, ok := rec.Numeric[attr.Name]
		if !ok {
			continue
		}
		if attr.Min != nil && v < *attr.Min || attr.Max != nil && v > *attr.Max {
			out = append(out, models.Advisory{
				Attribute: attr.Name,
				Value:     v,
				Message:   fmt.Sprintf("%s of %s is outside the expected range %s", attr.Name, format(v), rangeText(attr)),
			})
		}
	}
	return out
}

func rangeText(attr models.Attribute) string {
	switch {
	case attr.Min != nil && attr.Max != nil:
		return format(*attr.Min) + "-" + format(*attr.Max)
	case attr.Min != nil:
		return ">= " + format(*attr.Min)
	default:
		return "<= " + format(*attr.Max)
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
