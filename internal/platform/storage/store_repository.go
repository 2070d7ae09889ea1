package storage

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/repository"
	"mallguide-server-go/internal/platform/errors"
)

type storeRepository struct {
	db *gorm.DB
}

// NewStoreRepository returns the SQLite-backed store repository.
func NewStoreRepository(db *gorm.DB) repository.StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Put(ctx context.Context, store *aggregate.Store) error {
	if err := store.Validate(); err != nil {
		return err
	}
	row := toStoreRow(store)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "store.put", "failed to save store", err)
	}
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&StoreRow{}).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "store.delete", "failed to delete store", err)
	}
	return nil
}

func (r *storeRepository) Get(ctx context.Context, id string) (*aggregate.Store, error) {
	var row StoreRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "store.get", "failed to load store", err)
	}
	return fromStoreRow(&row), nil
}

func (r *storeRepository) List(ctx context.Context) ([]*aggregate.Store, error) {
	var rows []StoreRow
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.list", "failed to list stores", err)
	}
	stores := make([]*aggregate.Store, len(rows))
	for i := range rows {
		stores[i] = fromStoreRow(&rows[i])
	}
	return stores, nil
}

func (r *storeRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&StoreRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(errors.KindStorage, "store.exists", "failed to check store", err)
	}
	return count > 0, nil
}

func toStoreRow(s *aggregate.Store) *StoreRow {
	return &StoreRow{
		ID:          s.ID,
		Name:        s.Name,
		Category:    s.Category,
		Description: s.Description,
		Phone:       s.Phone,
		Floor:       s.Floor,
		MapLocation: s.MapLocation,
		CreatedAt:   s.CreatedAt,
	}
}

func fromStoreRow(row *StoreRow) *aggregate.Store {
	return &aggregate.Store{
		ID:          row.ID,
		Name:        row.Name,
		Category:    row.Category,
		Description: row.Description,
		Phone:       row.Phone,
		Floor:       row.Floor,
		MapLocation: row.MapLocation,
		CreatedAt:   row.CreatedAt,
	}
}
