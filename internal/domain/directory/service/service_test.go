package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/artifact"
	"mallguide-server-go/internal/domain/directory/repository"
	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/platform/errors"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(topic string, args ...interface{}) {
	m.Called(topic, args[0])
}

// failingStores fails Put or Delete on demand.
type failingStores struct {
	*repository.MemoryStoreRepository
	failPut    bool
	failDelete bool
}

func (f *failingStores) Put(ctx context.Context, s *aggregate.Store) error {
	if f.failPut {
		return stderrors.New("disk full")
	}
	return f.MemoryStoreRepository.Put(ctx, s)
}

func (f *failingStores) Delete(ctx context.Context, id string) error {
	if f.failDelete {
		return stderrors.New("disk full")
	}
	return f.MemoryStoreRepository.Delete(ctx, id)
}

type fixture struct {
	svc       *DirectoryService
	records   *failingStores
	artifacts *repository.MemoryArtifactRepository
}

func newFixture(t *testing.T, events Publisher) *fixture {
	t.Helper()
	records := &failingStores{MemoryStoreRepository: repository.NewMemoryStoreRepository()}
	artifacts := repository.NewMemoryArtifactRepository()
	svc, err := NewDirectoryService(Options{
		Records:   records,
		Artifacts: artifact.NewGenerator(aggregate.NewCatalog(), artifacts),
		Events:    events,
		Clock:     func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return &fixture{svc: svc, records: records, artifacts: artifacts}
}

func (f *fixture) pair(t *testing.T, id string) (bool, bool) {
	t.Helper()
	ctx := context.Background()
	rec, err := f.records.Exists(ctx, id)
	require.NoError(t, err)
	art, err := f.artifacts.Exists(ctx, id)
	require.NoError(t, err)
	return rec, art
}

func acme() CreateInput {
	return CreateInput{
		Name:        "Acme Tools",
		Category:    "DIY",
		Description: "Hardware",
		Phone:       "555-0100",
	}
}

func TestCreateStoresRecordAndArtifact(t *testing.T) {
	events := &mockPublisher{}
	events.On("Publish", eventbus.EventStoreCreated, mock.MatchedBy(func(d eventbus.StoreEventData) bool {
		return d.StoreID == "Acme_Tools" && d.Store != nil && d.Store.Name == "Acme Tools"
	})).Once()
	f := newFixture(t, events)

	res, err := f.svc.Create(context.Background(), acme())
	require.NoError(t, err)
	assert.Equal(t, "Acme_Tools", res.ID)
	assert.Equal(t, "Store created successfully", res.Message)
	assert.Equal(t, aggregate.DefaultFloor, res.Store.Floor)
	assert.Equal(t, aggregate.DefaultMapLocation, res.Store.MapLocation)

	rec, art := f.pair(t, "Acme_Tools")
	assert.True(t, rec)
	assert.True(t, art)

	a, err := f.svc.Artifact(context.Background(), "Acme_Tools")
	require.NoError(t, err)
	assert.Equal(t, "diy", a.Bucket)

	events.AssertExpectations(t)
}

func TestCreateMissingFields(t *testing.T) {
	events := &mockPublisher{}
	f := newFixture(t, events)

	in := acme()
	in.Phone = "  "
	_, err := f.svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Contains(t, err.Error(), "phone")

	rec, art := f.pair(t, "Acme_Tools")
	assert.False(t, rec)
	assert.False(t, art)
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateEmptyName(t *testing.T) {
	f := newFixture(t, nil)
	in := acme()
	in.Name = "   "

	_, err := f.svc.Create(context.Background(), in)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestCreateUnknownCategory(t *testing.T) {
	events := &mockPublisher{}
	f := newFixture(t, events)

	in := acme()
	in.Category = "Weapons"
	_, err := f.svc.Create(context.Background(), in)
	assert.True(t, errors.IsKind(err, errors.KindGeneration))

	rec, art := f.pair(t, "Acme_Tools")
	assert.False(t, rec)
	assert.False(t, art)
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateConflict(t *testing.T) {
	events := &mockPublisher{}
	events.On("Publish", eventbus.EventStoreCreated, mock.Anything).Once()
	f := newFixture(t, events)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)

	again := acme()
	again.Name = "  Acme   Tools "
	again.Phone = "555-0199"
	_, err = f.svc.Create(ctx, again)
	assert.True(t, errors.IsKind(err, errors.KindConflict))

	stored, err := f.svc.Get(ctx, "Acme_Tools")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", stored.Phone)
	events.AssertNumberOfCalls(t, "Publish", 1)
}

func TestCreateRollsBackArtifactWhenRecordFails(t *testing.T) {
	events := &mockPublisher{}
	f := newFixture(t, events)
	f.records.failPut = true

	_, err := f.svc.Create(context.Background(), acme())
	assert.True(t, errors.IsKind(err, errors.KindStorage))

	rec, art := f.pair(t, "Acme_Tools")
	assert.False(t, rec)
	assert.False(t, art)
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDeleteRemovesPairAndPublishes(t *testing.T) {
	events := &mockPublisher{}
	events.On("Publish", eventbus.EventStoreCreated, mock.Anything).Once()
	events.On("Publish", eventbus.EventStoreDeleted, eventbus.StoreEventData{StoreID: "Acme_Tools"}).Twice()
	f := newFixture(t, events)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "Acme_Tools"))
	rec, art := f.pair(t, "Acme_Tools")
	assert.False(t, rec)
	assert.False(t, art)

	// deleting again still succeeds and still announces
	require.NoError(t, f.svc.Delete(ctx, "Acme_Tools"))

	_, err = f.svc.Get(ctx, "Acme_Tools")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	events.AssertExpectations(t)
}

func TestDeleteStorageFailureDoesNotPublish(t *testing.T) {
	events := &mockPublisher{}
	f := newFixture(t, events)
	f.records.failDelete = true

	err := f.svc.Delete(context.Background(), "Acme_Tools")
	assert.True(t, errors.IsKind(err, errors.KindStorage))
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDeleteBlankIDSucceeds(t *testing.T) {
	events := &mockPublisher{}
	events.On("Publish", eventbus.EventStoreDeleted, eventbus.StoreEventData{StoreID: ""}).Once()
	f := newFixture(t, events)
	f.records.failDelete = true

	require.NoError(t, f.svc.Delete(context.Background(), " "))
	events.AssertExpectations(t)
}

func TestCreateAfterDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, acme())
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, "Acme_Tools"))

	in := acme()
	in.Category = "Food"
	_, err = f.svc.Create(ctx, in)
	require.NoError(t, err)

	a, err := f.svc.Artifact(ctx, "Acme_Tools")
	require.NoError(t, err)
	assert.Equal(t, "food", a.Bucket)
}

func TestConcurrentCreateSameID(t *testing.T) {
	bus := eventbus.New()
	var created atomic.Int32
	require.NoError(t, bus.Subscribe(eventbus.EventStoreCreated, func(eventbus.StoreEventData) { created.Add(1) }))
	f := newFixture(t, bus)

	const n = 16
	var wg sync.WaitGroup
	var ok, conflicts atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), acme())
			switch {
			case err == nil:
				ok.Add(1)
			case errors.IsKind(err, errors.KindConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), conflicts.Load())
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, 0, f.svc.locks.size())
}

func TestConcurrentCreateAndDeleteKeepPairsConsistent(t *testing.T) {
	f := newFixture(t, eventbus.New())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("Store %d", i%4)
		wg.Add(2)
		go func() {
			defer wg.Done()
			in := acme()
			in.Name = name
			_, _ = f.svc.Create(ctx, in)
		}()
		go func() {
			defer wg.Done()
			_ = f.svc.Delete(ctx, aggregate.StoreID(name))
		}()
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		rec, art := f.pair(t, fmt.Sprintf("Store_%d", i))
		assert.Equal(t, rec, art, "record and artifact must exist together")
	}

	stores, err := f.svc.List(ctx)
	require.NoError(t, err)
	for _, s := range stores {
		_, err := f.svc.Artifact(ctx, s.ID)
		assert.NoError(t, err)
	}
}

func TestListAndArtifactsByCategory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Name: "Zed Shoes", Category: "Sports and Shoes", Description: "Sneakers", Phone: "1", Floor: "First"},
		{Name: "Acme Tools", Category: "DIY", Description: "Hardware", Phone: "2"},
		{Name: "Bolt Hardware", Category: "DIY", Description: "Bolts", Phone: "3"},
	} {
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}

	stores, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 3)
	assert.Equal(t, "Acme_Tools", stores[0].ID)

	diy, err := f.svc.ArtifactsByCategory(ctx, "DIY")
	require.NoError(t, err)
	require.Len(t, diy, 2)
	assert.Equal(t, "Acme_Tools", diy[0].StoreID)
	assert.Equal(t, "Bolt_Hardware", diy[1].StoreID)

	_, err = f.svc.ArtifactsByCategory(ctx, "Weapons")
	assert.True(t, errors.IsKind(err, errors.KindGeneration))

	count, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, f.svc.Categories(), len(aggregate.DefaultCategories))
}

func TestNewDirectoryServiceRequiresDependencies(t *testing.T) {
	_, err := NewDirectoryService(Options{})
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}
