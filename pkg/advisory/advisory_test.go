package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpath/healthpath-go/pkg/models"
)

func record(numeric map[string]float64) models.Record {
	r := models.NewRecord()
	for k, v := range numeric {
		r.Numeric[k] = v
	}
	return r
}

func TestCheck(t *testing.T) {
	schema := models.DefaultHealthSchema()

	tests := []struct {
		name    string
		numeric map[string]float64
		want    []string
	}{
		{
			name:    "all plausible",
			numeric: map[string]float64{"Age": 30, "BMI": 22, "Sleep_Hours_Per_Night": 7, "Mental_Health_Score": 10},
			want:    nil,
		},
		{
			name:    "age and sleep out of range",
			numeric: map[string]float64{"Age": 130, "Sleep_Hours_Per_Night": 25, "BMI": 22},
			want:    []string{"Age", "Sleep_Hours_Per_Night"},
		},
		{
			name:    "lower bounds",
			numeric: map[string]float64{"Physical_Activity_Hours_Per_Week": -1, "Mental_Health_Score": 0},
			want:    []string{"Physical_Activity_Hours_Per_Week", "Mental_Health_Score"},
		},
		{
			name:    "bounds are inclusive",
			numeric: map[string]float64{"BMI": 60, "Age": 0, "Mental_Health_Score": 1},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(schema, record(tt.numeric))
			var attrs []string
			for _, a := range got {
				attrs = append(attrs, a.Attribute)
			}
			assert.Equal(t, tt.want, attrs)
		})
	}
}

func TestCheck_Message(t *testing.T) {
	got := Check(models.DefaultHealthSchema(), record(map[string]float64{"BMI": 72.5, "Physical_Activity_Hours_Per_Week": -2}))
	require.Len(t, got, 2)
	assert.Equal(t, 72.5, got[0].Value)
	assert.Equal(t, "BMI of 72.5 is outside the expected range 0-60", got[0].Message)
	assert.Equal(t, "Physical_Activity_Hours_Per_Week of -2 is outside the expected range >= 0", got[1].Message)
}
