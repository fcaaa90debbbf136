package models

// Record is one individual's attributes, split by kind
type Record struct {
	Categorical map[string]string  `json:"categorical"`
	Numeric     map[string]float64 `json:"numeric"`
}

// NewRecord creates an empty record
func NewRecord() Record {
	return Record{
		Categorical: make(map[string]string),
		Numeric:     make(map[string]float64),
	}
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	out := NewRecord()
	for k, v := range r.Categorical {
		out.Categorical[k] = v
	}
	for k, v := range r.Numeric {
		out.Numeric[k] = v
	}
	return out
}

// Population is an ordered reference dataset
type Population struct {
	Schema  *Schema  `json:"schema"`
	Records []Record `json:"records"`
}

// Len returns the number of records
func (p *Population) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Records)
}
