package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/merchant-onboarding/pkg/database"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	conn, err := database.New(database.Config{
		Path:         database.MemoryPath,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, database.NewMigrator(conn, logger).RunMigrations(sqlite.Migrations, sqlite.MigrationsDir))
	return sqlite.NewDB(conn.DB, logger)
}

// steppedClock returns strictly increasing times
func steppedClock() func() time.Time {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		at = at.Add(time.Second)
		return at
	}
}

func TestMerchantRepository_CreateAndGet(t *testing.T) {
	repo := NewMerchantRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	m := &entity.Merchant{Draft: entity.Draft{BusinessEntityType: entity.EntityPartnership}}
	require.NoError(t, repo.Create(ctx, m))
	require.NotEmpty(t, m.ID)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Equal(t, entity.EntityPartnership, got.BusinessEntityType)
	assert.NotNil(t, got.Business)
	assert.True(t, got.KYCDocs.IsEmpty())

	missing, err := repo.GetByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMerchantRepository_PatchTouchesOnlyNamedSections(t *testing.T) {
	repo := NewMerchantRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	m := &entity.Merchant{Draft: entity.Draft{BusinessEntityType: entity.EntitySoleProprietary}}
	require.NoError(t, repo.Create(ctx, m))

	business := entity.Fields{"legalName": "Acme", "pan": "ABCDE1234F"}
	_, err := repo.Patch(ctx, m.ID, entity.NewSectionPatch(entity.SectionBusiness, business))
	require.NoError(t, err)

	updated, err := repo.Patch(ctx, m.ID, entity.NewSectionPatch(entity.SectionPersonal, entity.Fields{"name": "Asha"}))
	require.NoError(t, err)

	assert.Equal(t, business, updated.Business)
	assert.Equal(t, entity.Fields{"name": "Asha"}, updated.Personal)
	assert.Equal(t, entity.EntitySoleProprietary, updated.BusinessEntityType)

	// a section patch replaces the whole section
	updated, err = repo.Patch(ctx, m.ID, entity.NewSectionPatch(entity.SectionBusiness, entity.Fields{"brandName": "Acme Stores"}))
	require.NoError(t, err)
	assert.Equal(t, entity.Fields{"brandName": "Acme Stores"}, updated.Business)

	_, err = repo.Patch(ctx, "missing", entity.NewEntityTypePatch(entity.EntityPublicLimited))
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestMerchantRepository_ListFiltersAndOrders(t *testing.T) {
	repo := NewMerchantRepository(newTestDB(t), zap.NewNop())
	repo.now = steppedClock()
	ctx := context.Background()

	seed := func(status entity.Status, brand, email string) *entity.Merchant {
		m := &entity.Merchant{
			Draft: entity.Draft{
				Business: entity.Fields{"brandName": brand},
				Personal: entity.Fields{"email": email},
			},
			Status: status,
		}
		require.NoError(t, repo.Create(ctx, m))
		return m
	}
	first := seed(entity.StatusPending, "Acme Stores", "asha@acme.in")
	second := seed(entity.StatusApproved, "Globex", "ops@globex.in")
	third := seed(entity.StatusPending, "100%_Pure", "sales@pure.in")

	all, err := repo.List(ctx, entity.MerchantFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending := entity.StatusPending
	items, err := repo.List(ctx, entity.MerchantFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.List(ctx, entity.MerchantFilter{Search: "GLOBEX.IN"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)

	items, err = repo.List(ctx, entity.MerchantFilter{Search: "%_"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, third.ID, items[0].ID)

	items, err = repo.List(ctx, entity.MerchantFilter{Status: &pending, Search: "globex"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMerchantRepository_StatusCountAndDelete(t *testing.T) {
	repo := NewMerchantRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	a := &entity.Merchant{}
	b := &entity.Merchant{}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.UpdateStatus(ctx, a.ID, entity.StatusOnboarded))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", entity.StatusOnboarded), port.ErrNotFound)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[entity.Status]int{entity.StatusPending: 1, entity.StatusOnboarded: 1}, counts)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), port.ErrNotFound)
}

func TestMerchantRepository_RejectsUnknownStatus(t *testing.T) {
	repo := NewMerchantRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	m := &entity.Merchant{}
	require.NoError(t, repo.Create(ctx, m))

	err := repo.UpdateStatus(ctx, m.ID, entity.Status("archived"))
	require.Error(t, err)
	assert.True(t, sqlite.IsConstraint(err))
	assert.False(t, sqlite.IsBusy(err))
}

func TestTransaction_RollsBackStatusAndHistory(t *testing.T) {
	db := newTestDB(t)
	merchants := NewMerchantRepository(db, zap.NewNop())
	history := NewStatusHistoryRepository(db, zap.NewNop())
	ctx := context.Background()

	m := &entity.Merchant{}
	require.NoError(t, merchants.Create(ctx, m))

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, merchants.UpdateStatus(txCtx, m.ID, entity.StatusProcessing))
		require.NoError(t, history.Create(txCtx, &entity.StatusHistory{
			MerchantID:     m.ID,
			PreviousStatus: entity.StatusPending,
			NewStatus:      entity.StatusProcessing,
			Timestamp:      time.Now(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := merchants.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)

	entries, err := history.GetByMerchantID(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStatusHistoryRepository_OrderedOldestFirst(t *testing.T) {
	history := NewStatusHistoryRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, history.Create(ctx, &entity.StatusHistory{
		MerchantID: "m-1", PreviousStatus: entity.StatusProcessing, NewStatus: entity.StatusApproved,
		ActorID: "u-1", ActorEmail: "ops@example.com", Timestamp: at.Add(time.Minute),
	}))
	require.NoError(t, history.Create(ctx, &entity.StatusHistory{
		MerchantID: "m-1", PreviousStatus: entity.StatusPending, NewStatus: entity.StatusProcessing,
		ActorID: "u-1", Timestamp: at,
	}))
	require.NoError(t, history.Create(ctx, &entity.StatusHistory{
		MerchantID: "m-2", PreviousStatus: entity.StatusPending, NewStatus: entity.StatusRejected, Timestamp: at,
	}))

	entries, err := history.GetByMerchantID(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.StatusProcessing, entries[0].NewStatus)
	assert.Equal(t, entity.StatusApproved, entries[1].NewStatus)
	assert.Equal(t, "ops@example.com", entries[1].ActorEmail)
	assert.True(t, entries[1].Timestamp.Equal(at.Add(time.Minute)))
}

func TestLeadRepository_NotesLifecycle(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	lead := &entity.Lead{Name: "Ravi", CompanyName: "Ravi Traders", Phone: "9876543210"}
	require.NoError(t, repo.Create(ctx, lead))

	require.NoError(t, repo.AddNote(ctx, lead.ID, &entity.Note{Text: "first", UserID: "u-1"}))
	require.NoError(t, repo.AddNote(ctx, lead.ID, &entity.Note{Text: "second", UserID: "u-2", UserEmail: "b@example.com"}))
	assert.ErrorIs(t, repo.AddNote(ctx, "missing", &entity.Note{Text: "x"}), port.ErrNotFound)

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 2)
	assert.Equal(t, "first", got.Notes[0].Text)
	assert.Equal(t, "b@example.com", got.Notes[1].UserEmail)

	listed, err := repo.List(ctx, "traders")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Notes, 2)

	listed, err = repo.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, repo.Delete(ctx, lead.ID))
	gone, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.ErrorIs(t, repo.Delete(ctx, lead.ID), port.ErrNotFound)
}
