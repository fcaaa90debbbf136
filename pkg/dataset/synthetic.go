package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// profile is one latent lifestyle pattern of the synthetic population
type profile struct {
	numeric     map[string][2]float64 // mean, spread
	categorical map[string]string
	techAlt     string // occasional alternative Tech_Engagement level
}

var profiles = []profile{
	{
		numeric: map[string][2]float64{
			"Age":                              {28, 4},
			"BMI":                              {21.5, 1},
			"Physical_Activity_Hours_Per_Week": {8, 1},
			"Mental_Health_Score":              {8.5, 0.5},
			"Sleep_Hours_Per_Night":            {8, 0.4},
			"Alcohol_Consumption_Per_Week":     {1, 0.5},
		},
		categorical: map[string]string{
			"Chronic_Condition":          "None",
			"Diet_Type":                  "Balanced",
			"Smoking_Habit":              "Non-Smoker",
			"Menstrual_Cycle_Regularity": "Regular",
			"Stress_Level":               "Low",
			"Tech_Engagement":            "Low",
		},
		techAlt: "Medium",
	},
	{
		numeric: map[string][2]float64{
			"Age":                              {35, 4},
			"BMI":                              {24.5, 1},
			"Physical_Activity_Hours_Per_Week": {5, 1},
			"Mental_Health_Score":              {7, 0.5},
			"Sleep_Hours_Per_Night":            {7, 0.4},
			"Alcohol_Consumption_Per_Week":     {3, 0.8},
		},
		categorical: map[string]string{
			"Chronic_Condition":          "None",
			"Diet_Type":                  "Vegetarian",
			"Smoking_Habit":              "Non-Smoker",
			"Menstrual_Cycle_Regularity": "Regular",
			"Stress_Level":               "Medium",
			"Tech_Engagement":            "Medium",
		},
		techAlt: "Low",
	},
	{
		numeric: map[string][2]float64{
			"Age":                              {45, 4},
			"BMI":                              {28.5, 1},
			"Physical_Activity_Hours_Per_Week": {2.5, 0.8},
			"Mental_Health_Score":              {5, 0.5},
			"Sleep_Hours_Per_Night":            {6, 0.4},
			"Alcohol_Consumption_Per_Week":     {6, 1},
		},
		categorical: map[string]string{
			"Chronic_Condition":          "Hypertension",
			"Diet_Type":                  "High-Protein",
			"Smoking_Habit":              "Occasional",
			"Menstrual_Cycle_Regularity": "Irregular",
			"Stress_Level":               "Medium",
			"Tech_Engagement":            "High",
		},
		techAlt: "Medium",
	},
	{
		numeric: map[string][2]float64{
			"Age":                              {52, 4},
			"BMI":                              {34, 1.2},
			"Physical_Activity_Hours_Per_Week": {1, 0.5},
			"Mental_Health_Score":              {2.5, 0.5},
			"Sleep_Hours_Per_Night":            {4.5, 0.4},
			"Alcohol_Consumption_Per_Week":     {10, 1.5},
		},
		categorical: map[string]string{
			"Chronic_Condition":          "Diabetes",
			"Diet_Type":                  "Fast-Food",
			"Smoking_Habit":              "Smoker",
			"Menstrual_Cycle_Regularity": "Irregular",
			"Stress_Level":               "High",
			"Tech_Engagement":            "High",
		},
		techAlt: "Medium",
	},
}

// Synthetic generates a reference population over the default health
// schema. Rows cycle through four lifestyle profiles ranging from thriving
// to high risk; numeric noise is a normal draw truncated at two spreads.
// The same n and seed always produce the same population.
func Synthetic(n int, seed int64) *models.Population {
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	swap := distuv.Bernoulli{P: 0.2, Src: src}
	schema := models.DefaultHealthSchema()

	records := make([]models.Record, n)
	for i := range records {
		p := profiles[i%len(profiles)]
		rec := models.NewRecord()
		for _, attr := range schema.Attributes {
			switch attr.Kind {
			case models.AttributeNumeric:
				ms := p.numeric[attr.Name]
				v := ms[0] + ms[1]*truncated(noise, 2)
				if attr.Min != nil {
					v = math.Max(v, *attr.Min)
				}
				if attr.Max != nil {
					v = math.Min(v, *attr.Max)
				}
				rec.Numeric[attr.Name] = math.Round(v*10) / 10
			case models.AttributeCategorical:
				rec.Categorical[attr.Name] = p.categorical[attr.Name]
			}
		}
		if swap.Rand() == 1 {
			rec.Categorical["Tech_Engagement"] = p.techAlt
		}
		records[i] = rec
	}

	return &models.Population{Schema: schema, Records: records}
}

// truncated clamps a standard normal draw to [-limit, limit]
func truncated(dist distuv.Normal, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, dist.Rand()))
}
