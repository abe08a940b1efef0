package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

type stubUploader struct {
	urls  []string
	err   error
	calls int
}

func (s *stubUploader) UploadMany(_ context.Context, items []domain.ImageUpload) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.urls[:len(items)], nil
}

type stubCreator struct {
	got   []domain.CreateListingRequest
	err   error
	block chan struct{}
}

func (s *stubCreator) Create(_ context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	if s.block != nil {
		<-s.block
	}
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Listing{ID: "new-1", Title: req.Title, Images: req.Images, CoverImageIndex: req.CoverImageIndex}, nil
}

func fillDraft(d *domain.ListingDraft) {
	d.Title = "Sunny room near campus"
	d.Price = 1450
	d.Location = "Berkeley, CA"
	d.Amenities = []string{"wifi", "Laundry ", "wifi"}
}

func newFlow(up ImageUploader, cr ListingCreator) *PostFlow {
	return NewPostFlow(up, cr, domain.DefaultDraftLimits, nil, nil)
}

func TestStepNavigationIsClamped(t *testing.T) {
	f := newFlow(&stubUploader{}, &stubCreator{})
	assert.Equal(t, StepBasicInfo, f.Step())

	f.Previous()
	assert.Equal(t, StepBasicInfo, f.Step())

	f.Next()
	f.Next()
	f.Next()
	assert.Equal(t, StepReview, f.Step())
	f.Next()
	assert.Equal(t, StepReview, f.Step())

	f.Previous()
	assert.Equal(t, StepPhotos, f.Step())
}

func TestNavigationDoesNotValidate(t *testing.T) {
	f := newFlow(&stubUploader{}, &stubCreator{})
	f.Next()
	f.Next()
	f.Next()
	assert.Equal(t, StepReview, f.Step(), "empty draft still reaches review")
	assert.Nil(t, f.State().Err)
}

func TestPublishRequiresReviewStep(t *testing.T) {
	cr := &stubCreator{}
	f := newFlow(&stubUploader{}, cr)
	f.EditDraft(fillDraft)

	_, err := f.Publish(context.Background())
	assert.ErrorIs(t, err, ErrPublishNotReady)
	assert.Empty(t, cr.got)
}

func TestPublishValidatesDraft(t *testing.T) {
	cr := &stubCreator{}
	f := newFlow(&stubUploader{}, cr)
	f.Next()
	f.Next()
	f.Next()

	_, err := f.Publish(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidDraft)
	assert.Empty(t, cr.got)
	assert.ErrorIs(t, f.State().Err, domain.ErrInvalidDraft)
	assert.False(t, f.State().IsComplete)
}

func TestPublishSuccess(t *testing.T) {
	up := &stubUploader{urls: []string{"https://cdn/1.jpg", "https://cdn/2.jpg"}}
	cr := &stubCreator{}
	f := newFlow(up, cr)
	f.EditDraft(func(d *domain.ListingDraft) {
		fillDraft(d)
		d.AddImage([]byte("one"), "")
		d.AddImage([]byte("two"), "image/png")
		d.CoverImageIndex = 1
	})
	f.Next()
	f.Next()
	f.Next()

	var states []PostState
	f.Subscribe(func(s PostState) { states = append(states, s) })

	listing, err := f.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-1", listing.ID)
	require.Len(t, cr.got, 1)
	req := cr.got[0]
	assert.Equal(t, []string{"https://cdn/1.jpg", "https://cdn/2.jpg"}, req.Images)
	assert.Equal(t, 1, req.CoverImageIndex)
	assert.Equal(t, []string{"Laundry", "wifi"}, req.Amenities)

	require.Len(t, states, 2)
	assert.True(t, states[0].IsPublishing)
	assert.False(t, states[1].IsPublishing)
	assert.True(t, states[1].IsComplete)
	assert.Equal(t, listing, f.State().Published)
}

func TestPublishWithoutImagesSkipsUpload(t *testing.T) {
	up := &stubUploader{}
	cr := &stubCreator{}
	f := newFlow(up, cr)
	f.EditDraft(fillDraft)
	f.Next()
	f.Next()
	f.Next()

	_, err := f.Publish(context.Background())
	require.NoError(t, err)
	assert.Zero(t, up.calls)
	assert.Empty(t, cr.got[0].Images)
}

func TestPublishFailureKeepsDraft(t *testing.T) {
	uploadErr := errors.New("image 1: upload failed")
	up := &stubUploader{err: uploadErr}
	cr := &stubCreator{}
	f := newFlow(up, cr)
	f.EditDraft(func(d *domain.ListingDraft) {
		fillDraft(d)
		d.AddImage([]byte("one"), "")
	})
	f.Next()
	f.Next()
	f.Next()

	_, err := f.Publish(context.Background())
	assert.ErrorIs(t, err, uploadErr)
	assert.Empty(t, cr.got)

	state := f.State()
	assert.Equal(t, StepReview, state.Step)
	assert.False(t, state.IsPublishing)
	assert.False(t, state.IsComplete)
	assert.Equal(t, "Sunny room near campus", f.Draft().Title)
	assert.Len(t, f.Draft().Images, 1)

	up.err = nil
	up.urls = []string{"https://cdn/1.jpg"}
	_, err = f.Publish(context.Background())
	require.NoError(t, err)
	assert.True(t, f.State().IsComplete)
}

func TestConcurrentPublishIsRejected(t *testing.T) {
	cr := &stubCreator{block: make(chan struct{})}
	f := newFlow(&stubUploader{}, cr)
	f.EditDraft(fillDraft)
	f.Next()
	f.Next()
	f.Next()

	started := make(chan struct{})
	f.Subscribe(func(s PostState) {
		if s.IsPublishing {
			close(started)
		}
	})
	done := make(chan error, 1)
	go func() {
		_, err := f.Publish(context.Background())
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("publish did not start")
	}
	_, err := f.Publish(context.Background())
	assert.ErrorIs(t, err, ErrPublishInProgress)

	close(cr.block)
	assert.NoError(t, <-done)
}

type countingCreator struct{ calls int32 }

func (c *countingCreator) Create(_ context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	atomic.AddInt32(&c.calls, 1)
	time.Sleep(time.Millisecond)
	return &domain.Listing{ID: "new-1", Title: req.Title}, nil
}

func TestSimultaneousPublishCreatesOnce(t *testing.T) {
	const publishers = 8
	for round := 0; round < 20; round++ {
		cr := &countingCreator{}
		f := newFlow(&stubUploader{}, cr)
		f.EditDraft(fillDraft)
		f.Next()
		f.Next()
		f.Next()

		release := make(chan struct{})
		var wg sync.WaitGroup
		var succeeded int32
		for i := 0; i < publishers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-release
				_, err := f.Publish(context.Background())
				if err == nil {
					atomic.AddInt32(&succeeded, 1)
					return
				}
				if !errors.Is(err, ErrPublishInProgress) && !errors.Is(err, ErrAlreadyPublished) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(release)
		wg.Wait()

		require.EqualValues(t, 1, atomic.LoadInt32(&cr.calls), "round %d", round)
		require.EqualValues(t, 1, atomic.LoadInt32(&succeeded), "round %d", round)
	}
}

func TestPublishAfterCompletionRequiresReset(t *testing.T) {
	cr := &stubCreator{}
	f := newFlow(&stubUploader{}, cr)
	f.EditDraft(fillDraft)
	f.Next()
	f.Next()
	f.Next()

	_, err := f.Publish(context.Background())
	require.NoError(t, err)
	_, err = f.Publish(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyPublished)
	assert.Len(t, cr.got, 1)
	assert.True(t, f.State().IsComplete)

	f.Reset()
	f.EditDraft(fillDraft)
	f.Next()
	f.Next()
	f.Next()
	_, err = f.Publish(context.Background())
	require.NoError(t, err)
	assert.Len(t, cr.got, 2)
}

func TestResetStartsFreshDraft(t *testing.T) {
	f := newFlow(&stubUploader{}, &stubCreator{})
	f.EditDraft(fillDraft)
	f.Next()
	f.Reset()

	assert.Equal(t, StepBasicInfo, f.Step())
	d := f.Draft()
	assert.Empty(t, d.Title)
	assert.Equal(t, domain.DefaultCurrency, d.Currency)
	assert.Equal(t, 1, d.NumberOfBedrooms)
	assert.Equal(t, domain.PropertyApartment, d.PropertyType)
}
