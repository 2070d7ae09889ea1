package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/platform/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storage-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := OpenDatabase(DatabaseConfig{Path: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })
	return db
}

func sampleStore(name, category string) *aggregate.Store {
	return &aggregate.Store{
		ID:          aggregate.StoreID(name),
		Name:        name,
		Category:    category,
		Description: "Hardware and paint",
		Phone:       "555-0100",
		Floor:       "Ground",
		MapLocation: aggregate.DefaultMapLocation,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMigrationsAreRecorded(t *testing.T) {
	db := openTestDB(t)

	history, err := NewMigrationManager(db).History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "001_directory", history[0].Version)
	assert.Equal(t, "002_auth_sessions", history[1].Version)

	// re-running is a no-op
	manager := NewMigrationManager(db)
	manager.AddMigration(&fakeMigration{version: "001_directory"})
	require.NoError(t, manager.RunMigrations())
}

type fakeMigration struct {
	version string
}

func (f *fakeMigration) Version() string     { return f.version }
func (f *fakeMigration) Description() string { return "fake" }
func (f *fakeMigration) Up(*gorm.DB) error   { return fmt.Errorf("must not run") }

func TestStoreRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(openTestDB(t))

	require.NoError(t, repo.Put(ctx, sampleStore("Zed Shoes", "Sports and Shoes")))
	require.NoError(t, repo.Put(ctx, sampleStore("Acme Tools", "DIY")))

	got, err := repo.Get(ctx, "Acme_Tools")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Tools", got.Name)
	assert.Equal(t, aggregate.DefaultMapLocation, got.MapLocation)

	updated := sampleStore("Acme Tools", "DIY")
	updated.Phone = "555-0199"
	require.NoError(t, repo.Put(ctx, updated))
	got, err = repo.Get(ctx, "Acme_Tools")
	require.NoError(t, err)
	assert.Equal(t, "555-0199", got.Phone)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"Acme_Tools", "Zed_Shoes"}, []string{list[0].ID, list[1].ID})

	require.NoError(t, repo.Delete(ctx, "Acme_Tools"))
	require.NoError(t, repo.Delete(ctx, "Acme_Tools"))

	exists, err := repo.Exists(ctx, "Acme_Tools")
	require.NoError(t, err)
	assert.False(t, exists)

	missing, err := repo.Get(ctx, "Acme_Tools")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreRepositoryRejectsInvalid(t *testing.T) {
	repo := NewStoreRepository(openTestDB(t))
	s := sampleStore("Acme Tools", "DIY")
	s.Floor = ""

	err := repo.Put(context.Background(), s)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestArtifactRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewArtifactRepository(openTestDB(t))

	art := &aggregate.Artifact{
		Version:  aggregate.ArtifactVersion,
		StoreID:  "Acme_Tools",
		Category: "DIY",
		Bucket:   "diy",
		Title:    "Acme Tools",
		Template: "detail/diy",
		Fields:   []aggregate.ArtifactField{{Key: "floor", Label: "Floor", Value: "Ground"}},
		Digest:   "abc",
	}
	require.NoError(t, repo.Save(ctx, art))
	require.NoError(t, repo.Save(ctx, &aggregate.Artifact{StoreID: "Burger_Hut", Category: "Food", Bucket: "food", Digest: "def"}))

	got, err := repo.Get(ctx, "Acme_Tools")
	require.NoError(t, err)
	assert.Equal(t, art, got)

	byCat, err := repo.GetByCategory(ctx, "Acme_Tools", "DIY")
	require.NoError(t, err)
	assert.NotNil(t, byCat)
	wrongCat, err := repo.GetByCategory(ctx, "Acme_Tools", "Food")
	require.NoError(t, err)
	assert.Nil(t, wrongCat)

	list, err := repo.ListByCategory(ctx, "Food")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Burger_Hut", list[0].StoreID)

	require.NoError(t, repo.Remove(ctx, "Acme_Tools"))
	require.NoError(t, repo.Remove(ctx, "Acme_Tools"))
	exists, err := repo.Exists(ctx, "Acme_Tools")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOpenDatabaseRequiresPath(t *testing.T) {
	_, err := OpenDatabase(DatabaseConfig{})
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}
