package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpath/healthpath-go/pkg/models"
)

func TestSynthetic_Deterministic(t *testing.T) {
	a := Synthetic(40, 7)
	b := Synthetic(40, 7)
	require.Equal(t, 40, a.Len())
	assert.Equal(t, a.Records, b.Records)

	c := Synthetic(40, 8)
	assert.NotEqual(t, a.Records, c.Records)
}

func TestSynthetic_CoversSchema(t *testing.T) {
	pop := Synthetic(20, 1)
	for i, rec := range pop.Records {
		for _, attr := range pop.Schema.Attributes {
			switch attr.Kind {
			case models.AttributeCategorical:
				assert.NotEmpty(t, rec.Categorical[attr.Name], "record %d %s", i, attr.Name)
			case models.AttributeNumeric:
				v, ok := rec.Numeric[attr.Name]
				require.True(t, ok, "record %d %s", i, attr.Name)
				if attr.Min != nil {
					assert.GreaterOrEqual(t, v, *attr.Min)
				}
				if attr.Max != nil {
					assert.LessOrEqual(t, v, *attr.Max)
				}
			}
		}
	}
}

func TestSynthetic_ProfilesCycle(t *testing.T) {
	pop := Synthetic(8, 3)
	assert.Equal(t, "Low", pop.Records[0].Categorical["Stress_Level"])
	assert.Equal(t, "High", pop.Records[3].Categorical["Stress_Level"])
	assert.Equal(t, "Diabetes", pop.Records[7].Categorical["Chronic_Condition"])
	assert.Less(t, pop.Records[0].Numeric["BMI"], pop.Records[3].Numeric["BMI"])
}
