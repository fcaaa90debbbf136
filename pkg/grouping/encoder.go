package grouping

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// CategoryTable is the fitted encoding table of one categorical attribute
type CategoryTable struct {
	values []string
	codes  map[string]int
	counts []int
	none   string
}

// Scaler holds the frozen standardization parameters of a numeric attribute
type Scaler struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Apply standardizes x
func (s Scaler) Apply(x float64) float64 {
	return (x - s.Mean) / s.StdDev
}

// EncodingState is the immutable result of fitting the encoder to a
// reference population. It is safe for concurrent use.
type EncodingState struct {
	schema  *models.Schema
	unseen  models.UnseenCategoryPolicy
	tables  map[string]*CategoryTable
	scalers map[string]Scaler
}

// EncodedRow is one transformed record together with the categorical
// attributes that needed the unseen-category fallback
type EncodedRow struct {
	Values    []float64
	Fallbacks []string
}

// FitEncoder derives encoding tables and standardization parameters from the
// reference population
func FitEncoder(pop *models.Population, unseen models.UnseenCategoryPolicy) (*EncodingState, error) {
	if pop == nil || pop.Len() == 0 {
		return nil, ErrEmptyPopulation
	}
	if err := pop.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	if unseen == "" {
		unseen = models.UnseenFirstCode
	}
	if !unseen.Valid() {
		return nil, fmt.Errorf("invalid unseen category policy: %s", unseen)
	}

	state := &EncodingState{
		schema:  pop.Schema,
		unseen:  unseen,
		tables:  make(map[string]*CategoryTable),
		scalers: make(map[string]Scaler),
	}

	for _, attr := range pop.Schema.Attributes {
		switch attr.Kind {
		case models.AttributeCategorical:
			state.tables[attr.Name] = fitCategory(attr, pop.Records)
		case models.AttributeNumeric:
			scaler, err := fitScaler(attr, pop.Records)
			if err != nil {
				return nil, err
			}
			state.scalers[attr.Name] = scaler
		}
	}

	return state, nil
}

func fitCategory(attr models.Attribute, records []models.Record) *CategoryTable {
	none := attr.NoneValue()
	observed := map[string]int{none: 0}
	for _, rec := range records {
		observed[categoryValue(rec, attr.Name, none)]++
	}

	// Declared levels lead in declared order, everything else is sorted.
	values := make([]string, 0, len(observed))
	placed := make(map[string]bool, len(observed))
	for _, level := range attr.Levels {
		if _, ok := observed[level]; ok && !placed[level] {
			values = append(values, level)
			placed[level] = true
		}
	}
	rest := make([]string, 0, len(observed))
	for v := range observed {
		if !placed[v] {
			rest = append(rest, v)
		}
	}
	sort.Strings(rest)
	values = append(values, rest...)

	table := &CategoryTable{
		values: values,
		codes:  make(map[string]int, len(values)),
		counts: make([]int, len(values)),
		none:   none,
	}
	for code, v := range values {
		table.codes[v] = code
		table.counts[code] = observed[v]
	}
	return table
}

func fitScaler(attr models.Attribute, records []models.Record) (Scaler, error) {
	values := make([]float64, len(records))
	for i, rec := range records {
		v, ok := rec.Numeric[attr.Name]
		if !ok {
			return Scaler{}, fmt.Errorf("%w: %s (record %d)", ErrMissingAttribute, attr.Name, i)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Scaler{}, fmt.Errorf("%w: %s (record %d)", ErrNonFiniteValue, attr.Name, i)
		}
		values[i] = v
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return Scaler{}, fmt.Errorf("%w: %s", ErrConstantAttribute, attr.Name)
	}
	return Scaler{Mean: mean, StdDev: std}, nil
}

func categoryValue(rec models.Record, name, none string) string {
	v, ok := rec.Categorical[name]
	if !ok || v == "" {
		return none
	}
	return v
}

// Schema returns the schema the state was fitted with
func (s *EncodingState) Schema() *models.Schema {
	return s.schema
}

// Width returns the number of encoded columns
func (s *EncodingState) Width() int {
	return len(s.schema.Attributes)
}

// UnseenPolicy returns the fallback policy for unseen categories
func (s *EncodingState) UnseenPolicy() models.UnseenCategoryPolicy {
	return s.unseen
}

// Code looks up the fitted code of a categorical value. Empty values resolve
// to the none sentinel. The second result is false for unseen values.
func (s *EncodingState) Code(attr, value string) (int, bool) {
	table, ok := s.tables[attr]
	if !ok {
		return 0, false
	}
	if value == "" {
		value = table.none
	}
	code, ok := table.codes[value]
	return code, ok
}

// Domain returns the fitted domain of a categorical attribute in code order
func (s *EncodingState) Domain(attr string) []string {
	table, ok := s.tables[attr]
	if !ok {
		return nil
	}
	out := make([]string, len(table.values))
	copy(out, table.values)
	return out
}

// Domains returns every categorical domain keyed by attribute name
func (s *EncodingState) Domains() map[string][]string {
	out := make(map[string][]string, len(s.tables))
	for name := range s.tables {
		out[name] = s.Domain(name)
	}
	return out
}

// MostCommon returns the most frequent value of a categorical attribute in
// the reference population. Ties go to the lower code.
func (s *EncodingState) MostCommon(attr string) (string, bool) {
	table, ok := s.tables[attr]
	if !ok {
		return "", false
	}
	best := 0
	for code, n := range table.counts {
		if n > table.counts[best] {
			best = code
		}
	}
	return table.values[best], true
}

// Scaler returns the standardization parameters of a numeric attribute
func (s *EncodingState) Scaler(attr string) (Scaler, bool) {
	sc, ok := s.scalers[attr]
	return sc, ok
}

func (s *EncodingState) fallbackCode(table *CategoryTable) int {
	switch s.unseen {
	case models.UnseenSentinel:
		return table.codes[table.none]
	case models.UnseenOutOfVocabulary:
		return len(table.values)
	default:
		return 0
	}
}

// EncodeRecord transforms one record and reports unseen-category fallbacks
func (s *EncodingState) EncodeRecord(rec models.Record) (EncodedRow, error) {
	row := EncodedRow{Values: make([]float64, s.Width())}
	for i, attr := range s.schema.Attributes {
		switch attr.Kind {
		case models.AttributeCategorical:
			table := s.tables[attr.Name]
			code, ok := table.codes[categoryValue(rec, attr.Name, table.none)]
			if !ok {
				code = s.fallbackCode(table)
				row.Fallbacks = append(row.Fallbacks, attr.Name)
			}
			row.Values[i] = float64(code)
		case models.AttributeNumeric:
			v, ok := rec.Numeric[attr.Name]
			if !ok {
				return EncodedRow{}, fmt.Errorf("%w: %s", ErrMissingAttribute, attr.Name)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return EncodedRow{}, fmt.Errorf("%w: %s", ErrNonFiniteValue, attr.Name)
			}
			row.Values[i] = s.scalers[attr.Name].Apply(v)
		}
	}
	return row, nil
}

// TransformRecord transforms one record into a feature vector
func (s *EncodingState) TransformRecord(rec models.Record) ([]float64, error) {
	row, err := s.EncodeRecord(rec)
	if err != nil {
		return nil, err
	}
	return row.Values, nil
}

// Transform encodes records into a matrix, one row per record
func (s *EncodingState) Transform(records []models.Record) (*mat.Dense, error) {
	if len(records) == 0 {
		return nil, ErrEmptyMatrix
	}
	out := mat.NewDense(len(records), s.Width(), nil)
	for i, rec := range records {
		values, err := s.TransformRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out.SetRow(i, values)
	}
	return out, nil
}
