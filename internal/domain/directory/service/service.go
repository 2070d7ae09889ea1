// Package service coordinates store records with their presentation
// artifacts and announces lifecycle changes.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/artifact"
	"mallguide-server-go/internal/domain/directory/repository"
	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/platform/errors"
	"mallguide-server-go/internal/platform/logging"
	"mallguide-server-go/internal/platform/observability"
)

// Publisher receives lifecycle events. *eventbus.Bus satisfies it.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// CreateInput is a create request before defaults and id derivation.
type CreateInput struct {
	Name        string
	Category    string
	Description string
	Phone       string
	Floor       string
	MapLocation string
}

type CreateResult struct {
	ID      string
	Message string
	Store   *aggregate.Store
}

type Options struct {
	Records   repository.StoreRepository
	Artifacts *artifact.Generator
	Events    Publisher
	Logger    *logging.Logger
	Clock     func() time.Time
}

// DirectoryService keeps every record paired with exactly one artifact.
// Operations on the same id are serialized; different ids proceed in
// parallel. Whole-directory reads wait for in-flight mutations so they
// never observe a half-written pair.
type DirectoryService struct {
	records   repository.StoreRepository
	artifacts *artifact.Generator
	events    Publisher
	logger    *logging.Logger
	clock     func() time.Time

	locks    *keyedMutex
	snapshot sync.RWMutex
}

func NewDirectoryService(opts Options) (*DirectoryService, error) {
	const op = "directory.new"
	if opts.Records == nil {
		return nil, errors.New(errors.KindConfig, op, "store repository is required")
	}
	if opts.Artifacts == nil {
		return nil, errors.New(errors.KindConfig, op, "artifact generator is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &DirectoryService{
		records:   opts.Records,
		artifacts: opts.Artifacts,
		events:    opts.Events,
		logger:    opts.Logger,
		clock:     clock,
		locks:     newKeyedMutex(),
	}, nil
}

func (in CreateInput) record(now time.Time) *aggregate.Store {
	floor := strings.TrimSpace(in.Floor)
	if floor == "" {
		floor = aggregate.DefaultFloor
	}
	mapLocation := strings.TrimSpace(in.MapLocation)
	if mapLocation == "" {
		mapLocation = aggregate.DefaultMapLocation
	}
	return &aggregate.Store{
		ID:          aggregate.StoreID(in.Name),
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Phone:       strings.TrimSpace(in.Phone),
		Floor:       floor,
		MapLocation: mapLocation,
		CreatedAt:   now.UTC(),
	}
}

// Create validates input, writes the artifact then the record, and
// publishes EventStoreCreated. Nothing is left behind on failure.
func (s *DirectoryService) Create(ctx context.Context, in CreateInput) (res *CreateResult, err error) {
	const op = "directory.create"
	ctx, end := observability.StartSpan(ctx, "directory", "create")
	defer func() { end(err) }()

	store := in.record(s.clock())
	if err := store.Validate(); err != nil {
		return nil, err
	}

	s.snapshot.RLock()
	defer s.snapshot.RUnlock()
	unlock := s.locks.Lock(store.ID)
	defer unlock()

	exists, err := s.records.Exists(ctx, store.ID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "failed to check existing store", err)
	}
	if exists {
		return nil, errors.Newf(errors.KindConflict, op, "store %q already exists", store.ID)
	}

	if _, err := s.artifacts.Generate(ctx, store); err != nil {
		if errors.IsKind(err, errors.KindStorage) {
			s.rollback(ctx, store.ID)
		}
		return nil, err
	}

	if err := s.records.Put(ctx, store); err != nil {
		s.rollback(ctx, store.ID)
		if errors.IsKind(err, errors.KindValidation) {
			return nil, err
		}
		return nil, errors.Wrap(errors.KindStorage, op, "failed to save store", err)
	}

	if s.events != nil {
		s.events.Publish(eventbus.EventStoreCreated, eventbus.StoreEventData{StoreID: store.ID, Store: store.Clone()})
	}

	return &CreateResult{
		ID:      store.ID,
		Message: "Store created successfully",
		Store:   store,
	}, nil
}

func (s *DirectoryService) rollback(ctx context.Context, id string) {
	if err := s.artifacts.Remove(context.WithoutCancel(ctx), id); err != nil {
		s.logger.ErrorTag("Directory", "rollback of artifact %s failed: %v", id, err)
	}
}

// Delete removes the artifact then the record. Deleting an absent or blank
// id succeeds. EventStoreDeleted is published after every completed delete.
func (s *DirectoryService) Delete(ctx context.Context, id string) (err error) {
	const op = "directory.delete"
	ctx, end := observability.StartSpan(ctx, "directory", "delete")
	defer func() { end(err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		// nothing can be stored under a blank id
		s.publishDeleted(id)
		return nil
	}

	s.snapshot.RLock()
	defer s.snapshot.RUnlock()
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.artifacts.Remove(ctx, id); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.KindStorage, op, "failed to delete store", err)
	}

	s.publishDeleted(id)
	return nil
}

func (s *DirectoryService) publishDeleted(id string) {
	if s.events != nil {
		s.events.Publish(eventbus.EventStoreDeleted, eventbus.StoreEventData{StoreID: id})
	}
}

// Get returns the record for id or a not_found error.
func (s *DirectoryService) Get(ctx context.Context, id string) (*aggregate.Store, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	store, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "directory.get", "failed to load store", err)
	}
	if store == nil {
		return nil, errors.Newf(errors.KindNotFound, "directory.get", "store %q not found", id)
	}
	return store, nil
}

// Artifact returns the descriptor for id or a not_found error.
func (s *DirectoryService) Artifact(ctx context.Context, id string) (*aggregate.Artifact, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.artifacts.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "directory.artifact", "failed to load artifact", err)
	}
	if a == nil {
		return nil, errors.Newf(errors.KindNotFound, "directory.artifact", "artifact %q not found", id)
	}
	return a, nil
}

func (s *DirectoryService) List(ctx context.Context) ([]*aggregate.Store, error) {
	s.snapshot.Lock()
	defer s.snapshot.Unlock()

	stores, err := s.records.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "directory.list", "failed to list stores", err)
	}
	return stores, nil
}

func (s *DirectoryService) ArtifactsByCategory(ctx context.Context, category string) ([]*aggregate.Artifact, error) {
	s.snapshot.Lock()
	defer s.snapshot.Unlock()

	return s.artifacts.ListByCategory(ctx, category)
}

func (s *DirectoryService) Categories() []aggregate.Category {
	return s.artifacts.Catalog().Categories()
}

// Count reports how many records exist.
func (s *DirectoryService) Count(ctx context.Context) (int, error) {
	stores, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(stores), nil
}
