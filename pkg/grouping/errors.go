package grouping

import (
	"errors"

	"github.com/healthpath/healthpath-go/pkg/models"
)

var (
	// ErrConstantAttribute is returned when a numeric attribute has zero
	// standard deviation over the reference population.
	ErrConstantAttribute = errors.New("numeric attribute has zero standard deviation")

	// ErrMissingAttribute is returned when a record lacks a numeric value.
	ErrMissingAttribute = errors.New("record is missing a numeric attribute")

	// ErrNonFiniteValue is returned when a numeric value is NaN or infinite.
	ErrNonFiniteValue = models.ErrNonFiniteValue

	// ErrEmptyPopulation is returned when fitting over no records.
	ErrEmptyPopulation = errors.New("reference population is empty")

	ErrEmptyMatrix         = errors.New("matrix has no rows")
	ErrInvalidClusterCount = errors.New("cluster count out of range")
	ErrEmptyCluster        = errors.New("cluster has no members")
	ErrLabelOutOfRange     = errors.New("cluster label out of range")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrUnknownAttribute    = errors.New("unknown attribute")
)
