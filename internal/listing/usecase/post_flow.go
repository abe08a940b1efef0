package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
)

type PostStep int

const (
	StepBasicInfo PostStep = iota
	StepPropertyDetails
	StepPhotos
	StepReview
)

func (s PostStep) String() string {
	switch s {
	case StepBasicInfo:
		return "basic_info"
	case StepPropertyDetails:
		return "property_details"
	case StepPhotos:
		return "photos"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

var (
	ErrPublishNotReady   = errors.New("listing can only be published from the review step")
	ErrPublishInProgress = errors.New("listing is already being published")
	ErrAlreadyPublished  = errors.New("listing was already published; reset to post another")
)

type PostState struct {
	Step         PostStep
	IsPublishing bool
	IsComplete   bool
	Published    *domain.Listing
	Err          error
}

// ImageUploader is the part of UploadCoordinator the flow needs.
type ImageUploader interface {
	UploadMany(ctx context.Context, items []domain.ImageUpload) ([]string, error)
}

type ListingCreator interface {
	Create(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error)
}

// PostFlow walks one draft through the four posting steps. Navigation is
// free in both directions; the draft is validated only when publishing.
type PostFlow struct {
	uploader ImageUploader
	creator  ListingCreator
	limits   domain.DraftLimits
	logger   *logger.Logger
	metrics  *metrics.MetricsManager
	now      func() time.Time

	mu           sync.Mutex
	step         PostStep
	draft        domain.ListingDraft
	isPublishing bool
	isComplete   bool
	published    *domain.Listing
	lastErr      error
	observers    map[int]func(PostState)
	nextObs      int
}

func NewPostFlow(uploader ImageUploader, creator ListingCreator, limits domain.DraftLimits, log *logger.Logger, m *metrics.MetricsManager) *PostFlow {
	if log == nil {
		log = logger.NewNop()
	}
	f := &PostFlow{
		uploader:  uploader,
		creator:   creator,
		limits:    limits,
		logger:    log,
		metrics:   m,
		now:       time.Now,
		observers: make(map[int]func(PostState)),
	}
	f.draft = domain.NewDraft(f.now())
	return f
}

func (f *PostFlow) Next() {
	f.mutate(func() {
		if f.step < StepReview {
			f.step++
		}
	})
}

func (f *PostFlow) Previous() {
	f.mutate(func() {
		if f.step > StepBasicInfo {
			f.step--
		}
	})
}

func (f *PostFlow) Step() PostStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *PostFlow) Draft() domain.ListingDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// EditDraft applies fn to the draft under the flow's lock.
func (f *PostFlow) EditDraft(fn func(*domain.ListingDraft)) {
	f.mutate(func() { fn(&f.draft) })
}

// Publish uploads the draft's images and creates the listing. On failure
// the draft and step are kept so the user can retry.
func (f *PostFlow) Publish(ctx context.Context) (*domain.Listing, error) {
	draft, err := f.beginPublish()
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "PostFlow.Publish")
	defer span.End()

	listing, err := f.publish(ctx, draft)
	if err != nil {
		f.logger.Error("PostFlow.Publish: failed", "error", err)
		f.mutate(func() {
			f.isPublishing = false
			f.lastErr = err
		})
		return nil, err
	}

	f.metrics.Published()
	f.logger.Info("PostFlow.Publish: listing published", "listing_id", listing.ID)
	f.mutate(func() {
		f.isPublishing = false
		f.isComplete = true
		f.published = listing
	})
	return listing, nil
}

// beginPublish checks, validates and claims the flow in one critical
// section so that at most one publish of a draft reaches the creator.
func (f *PostFlow) beginPublish() (domain.ListingDraft, error) {
	f.mu.Lock()
	var rejected error
	switch {
	case f.isPublishing:
		rejected = ErrPublishInProgress
	case f.isComplete:
		rejected = ErrAlreadyPublished
	case f.step != StepReview:
		rejected = ErrPublishNotReady
	}
	if rejected != nil {
		f.mu.Unlock()
		return domain.ListingDraft{}, rejected
	}

	draft := f.draft.Clone()
	err := draft.Validate(f.limits)
	if err != nil {
		f.lastErr = err
	} else {
		f.isPublishing = true
		f.lastErr = nil
	}
	f.unlockAndNotify()
	return draft, err
}

func (f *PostFlow) publish(ctx context.Context, draft domain.ListingDraft) (*domain.Listing, error) {
	var urls []string
	if len(draft.Images) > 0 {
		var err error
		if urls, err = f.uploader.UploadMany(ctx, draft.Images); err != nil {
			return nil, err
		}
	}
	return f.creator.Create(ctx, draft.Request(urls))
}

// Reset starts a fresh draft at the first step.
func (f *PostFlow) Reset() {
	f.mutate(func() {
		f.step = StepBasicInfo
		f.draft = domain.NewDraft(f.now())
		f.isComplete = false
		f.isPublishing = false
		f.published = nil
		f.lastErr = nil
	})
}

func (f *PostFlow) State() PostState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *PostFlow) Subscribe(fn func(PostState)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.observers, id)
		f.mu.Unlock()
	}
}

func (f *PostFlow) stateLocked() PostState {
	return PostState{
		Step:         f.step,
		IsPublishing: f.isPublishing,
		IsComplete:   f.isComplete,
		Published:    f.published,
		Err:          f.lastErr,
	}
}

func (f *PostFlow) mutate(fn func()) {
	f.mu.Lock()
	fn()
	f.unlockAndNotify()
}

// unlockAndNotify releases f.mu and then calls observers with the state
// as it was at release.
func (f *PostFlow) unlockAndNotify() {
	state := f.stateLocked()
	observers := make([]func(PostState), 0, len(f.observers))
	for _, o := range f.observers {
		observers = append(observers, o)
	}
	f.mu.Unlock()
	for _, o := range observers {
		o(state)
	}
}
