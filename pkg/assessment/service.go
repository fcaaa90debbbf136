// Package assessment serves risk-group classifications over a loaded
// reference population.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/healthpath/healthpath-go/pkg/advisory"
	"github.com/healthpath/healthpath-go/pkg/dataset"
	"github.com/healthpath/healthpath-go/pkg/grouping"
	"github.com/healthpath/healthpath-go/pkg/logging"
	"github.com/healthpath/healthpath-go/pkg/models"
)

var (
	// ErrNotReady is returned while no reference population is loaded
	ErrNotReady = errors.New("reference population not loaded")

	// ErrInvalidInput wraps problems with caller supplied attributes
	ErrInvalidInput = errors.New("invalid assessment input")
)

// snapshot is one fitted reference. It is never modified after it is
// published, so readers need no locking.
type snapshot struct {
	id       string
	ref      *grouping.Reference
	loadedAt time.Time
}

// Options tunes a Service
type Options struct {
	// MaxReferenceSize only triggers a warning; fitting is cubic in the
	// reference size.
	MaxReferenceSize int
	Clusterer        grouping.Clusterer
	Logger           *logging.Logger
}

// Service owns the current reference and classifies individuals against it
type Service struct {
	source  dataset.Source
	policy  *models.GroupingPolicy
	opts    Options
	log     *logging.FieldLogger
	current atomic.Pointer[snapshot]
	reload  sync.Mutex
}

// NewService creates an assessment service. No reference is loaded until
// Init or Reload succeeds.
func NewService(source dataset.Source, policy *models.GroupingPolicy, opts Options) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("dataset source is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("grouping policy is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grouping policy: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger()
	}

	return &Service{
		source: source,
		policy: policy,
		opts:   opts,
		log:    opts.Logger.WithFields(logging.Component("assessment")),
	}, nil
}

// Init performs the initial load. Callers treat a failure as fatal.
func (s *Service) Init(ctx context.Context) error {
	if _, err := s.Reload(ctx); err != nil {
		return fmt.Errorf("failed to initialize reference population: %w", err)
	}
	return nil
}

// Reload loads and fits the reference population again and swaps it in.
// On failure the previous reference stays active.
func (s *Service) Reload(ctx context.Context) (*models.ReferenceSummary, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	start := time.Now()
	pop, err := s.source.Load(ctx, &s.policy.Schema)
	if err != nil {
		s.log.Error("Failed to load reference population", err)
		return nil, fmt.Errorf("failed to load reference population: %w", err)
	}

	if s.opts.MaxReferenceSize > 0 && pop.Len() > s.opts.MaxReferenceSize {
		s.log.Warn("Reference population exceeds recommended size, classification will be slow",
			logging.Int("records", pop.Len()),
			logging.Int("max_reference_size", s.opts.MaxReferenceSize))
	}

	ref, err := grouping.NewReference(pop, grouping.Options{
		ClusterCount: s.policy.ClusterCount,
		Weights:      s.policy.Weights,
		Unseen:       s.policy.UnseenCategory,
		Clusterer:    s.opts.Clusterer,
	})
	if err != nil {
		s.log.Error("Failed to fit reference population", err, logging.Int("records", pop.Len()))
		return nil, fmt.Errorf("failed to fit reference population: %w", err)
	}

	snap := &snapshot{
		id:       uuid.New().String(),
		ref:      ref,
		loadedAt: time.Now().UTC(),
	}
	s.current.Store(snap)

	s.log.Info("Reference population loaded",
		logging.String("reference_id", snap.id),
		logging.Int("records", pop.Len()),
		logging.Int("clusters", ref.ClusterCount()),
		logging.Duration("duration_ms", time.Since(start)))

	return summarize(snap), nil
}

// Ready reports whether a reference population is loaded
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// Policy returns the grouping policy in use
func (s *Service) Policy() *models.GroupingPolicy {
	return s.policy
}

// Reference describes the currently loaded reference population
func (s *Service) Reference() (*models.ReferenceSummary, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return summarize(snap), nil
}

func summarize(snap *snapshot) *models.ReferenceSummary {
	enc := snap.ref.Encoder()
	return &models.ReferenceSummary{
		ID:           snap.id,
		Records:      snap.ref.Size(),
		ClusterCount: snap.ref.ClusterCount(),
		Attributes:   enc.Schema().Names(),
		Domains:      enc.Domains(),
		Mapping:      snap.ref.Mapping(),
		LoadedAt:     snap.loadedAt,
	}
}

// Classify places an individual described by raw attribute values into an
// ordinal risk group. Attributes the caller leaves out take the schema
// defaults; implausible values produce advisories but are still classified.
func (s *Service) Classify(ctx context.Context, req *models.AssessmentRequest) (*models.Assessment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}

	rec, err := s.policy.Schema.ParseRecord(req.Attributes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := snap.ref.Classify(rec)
	if err != nil {
		if errors.Is(err, grouping.ErrMissingAttribute) || errors.Is(err, grouping.ErrNonFiniteValue) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	a := &models.Assessment{
		ID:          uuid.New().String(),
		ReferenceID: snap.id,
		Group:       result.Group,
		GroupLabel:  models.GroupLabel(result.Group, snap.ref.ClusterCount()),
		Label:       result.Label,
		Advisories:  advisory.Check(&s.policy.Schema, rec),
		Fallbacks:   result.Encoded.Fallbacks,
		CreatedAt:   time.Now().UTC(),
	}
	if req.Explain {
		a.Mapping = result.Mapping
		a.EncodedFeature = result.Encoded.Values
		a.Merges = result.Merges
	}

	fields := []logging.Field{
		logging.String("assessment_id", a.ID),
		logging.Int("group", a.Group),
		logging.Duration("duration_ms", time.Since(start)),
	}
	if len(a.Fallbacks) > 0 {
		s.log.Warn("Unseen categories encoded with fallback code",
			append(fields, logging.Int("fallbacks", len(a.Fallbacks)))...)
	} else {
		s.log.Debug("Individual classified", fields...)
	}

	return a, nil
}
