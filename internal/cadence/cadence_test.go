package cadence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/config"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/service"
	"github.com/jcourtner/leadpipe/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage, *config.Config) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	cfg := config.Default()
	return NewEngine(store, &cfg), store, &cfg
}

func seedCompany(t *testing.T, store *storage.SQLiteStorage, name, state string) int64 {
	t.Helper()
	id, err := store.CreateCompany(context.Background(), &model.Company{Name: name, State: state})
	require.NoError(t, err)
	return id
}

func TestAddBusinessDays(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		days  int
		want  time.Time
	}{
		{name: "zero days", start: monday, days: 0, want: monday},
		{name: "within week", start: monday, days: 3, want: monday.AddDate(0, 0, 3)},
		{name: "friday plus one skips weekend", start: friday, days: 1, want: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)},
		{name: "full week", start: monday, days: 5, want: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)},
		{name: "from saturday", start: saturday, days: 1, want: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)},
		{name: "two weeks", start: monday, days: 10, want: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddBusinessDays(tt.start, tt.days))
		})
	}
}

func TestNextContact(t *testing.T) {
	cfg := config.Default()
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	// No prior attempt: first interval counted from now.
	first := NextContact(&cfg, 0, time.Time{}, now)
	assert.Equal(t, AddBusinessDays(now, 3), first)

	// Attempt count selects the interval, counted from the last attempt.
	assert.Equal(t, AddBusinessDays(monday, 3), NextContact(&cfg, 1, monday, now))
	assert.Equal(t, AddBusinessDays(monday, 5), NextContact(&cfg, 2, monday, now))
	assert.Equal(t, AddBusinessDays(monday, 7), NextContact(&cfg, 3, monday, now))
	assert.Equal(t, AddBusinessDays(monday, 10), NextContact(&cfg, 4, monday, now))

	// Past the table: overflow interval.
	assert.Equal(t, AddBusinessDays(monday, 14), NextContact(&cfg, 5, monday, now))
	assert.Equal(t, AddBusinessDays(monday, 14), NextContact(&cfg, 12, monday, now))
}

func TestSetFollowUp(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	companyID := seedCompany(t, store, "Acme", "TX")
	followUp := time.Now().AddDate(0, 0, 7)
	stage := model.StagePreDemo
	id, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:    companyID,
		FirstName:    "Jane",
		Population:   model.PopulationEngaged,
		Stage:        &stage,
		FollowUpDate: &followUp,
	})
	require.NoError(t, err)

	when := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, engine.SetFollowUp(ctx, id, when, "they asked for October"))

	prospect, err := store.GetProspect(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, prospect.FollowUpDate)
	assert.True(t, prospect.FollowUpDate.Equal(when))

	activities, err := store.GetActivities(ctx, id)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActivityReminder, activities[0].Type)
	require.NotNil(t, activities[0].FollowUpSet)
	assert.True(t, activities[0].FollowUpSet.Equal(when))
	assert.Equal(t, "they asked for October", activities[0].Notes)
}

func TestSetFollowUpValidation(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	companyID := seedCompany(t, store, "Acme", "TX")
	id, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:  companyID,
		FirstName:  "Jane",
		Population: model.PopulationUnengaged,
	})
	require.NoError(t, err)

	err = engine.SetFollowUp(ctx, id, time.Time{}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSetFollowUpRefusesDNC(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	companyID := seedCompany(t, store, "Acme", "TX")
	id, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:  companyID,
		FirstName:  "Dead",
		Population: model.PopulationDeadDNC,
	})
	require.NoError(t, err)

	err = engine.SetFollowUp(ctx, id, time.Now().AddDate(0, 0, 7), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDNCViolation)

	// Nothing was written.
	prospect, err := store.GetProspect(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, prospect.FollowUpDate)
	activities, err := store.GetActivities(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestOrphanedEngaged(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	companyID := seedCompany(t, store, "Acme", "TX")

	orphans, err := engine.OrphanedEngaged(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	// Bypass the state machine to manufacture the defect.
	stage := model.StagePreDemo
	orphanID, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:  companyID,
		FirstName:  "Orphan",
		Population: model.PopulationEngaged,
		Stage:      &stage,
	})
	require.NoError(t, err)

	orphans, err = engine.OrphanedEngaged(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, orphanID, orphans[0].ID)
}

func TestTodaysQueueOrdering(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()
	asOf := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	eastern := seedCompany(t, store, "East Co", "NY")
	pacific := seedCompany(t, store, "West Co", "CA")

	engagedAt := func(companyID int64, name string, stage model.EngagementStage) int64 {
		t.Helper()
		due := asOf.AddDate(0, 0, -1)
		id, err := store.CreateProspect(ctx, &model.Prospect{
			CompanyID:    companyID,
			FirstName:    name,
			Population:   model.PopulationEngaged,
			Stage:        &stage,
			FollowUpDate: &due,
		})
		require.NoError(t, err)
		return id
	}
	unengagedAt := func(companyID int64, name string, score int) int64 {
		t.Helper()
		id, err := store.CreateProspect(ctx, &model.Prospect{
			CompanyID:  companyID,
			FirstName:  name,
			Population: model.PopulationUnengaged,
			Score:      score,
		})
		require.NoError(t, err)
		return id
	}

	preDemoEast := engagedAt(eastern, "PreDemoEast", model.StagePreDemo)
	closingWest := engagedAt(pacific, "ClosingWest", model.StageClosing)
	closingEast := engagedAt(eastern, "ClosingEast", model.StageClosing)
	lowScore := unengagedAt(pacific, "LowScore", 10)
	highScore := unengagedAt(eastern, "HighScore", 90)

	// Engaged prospect due tomorrow stays out of today's queue.
	future := asOf.AddDate(0, 0, 2)
	stage := model.StagePreDemo
	_, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:    eastern,
		FirstName:    "Tomorrow",
		Population:   model.PopulationEngaged,
		Stage:        &stage,
		FollowUpDate: &future,
	})
	require.NoError(t, err)

	queue, err := engine.TodaysQueue(ctx, asOf)
	require.NoError(t, err)

	ids := make([]int64, len(queue))
	for i := range queue {
		ids[i] = queue[i].ID
	}
	// Closing before pre_demo; among closing, eastern before pacific.
	// Unengaged follow, best score first.
	assert.Equal(t, []int64{closingEast, closingWest, preDemoEast, highScore, lowScore}, ids)
}

// busyStorage fails BeginTx with the storage-busy error a fixed number of
// times before delegating.
type busyStorage struct {
	service.Storage
	busyLeft int
}

func (b *busyStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if b.busyLeft > 0 {
		b.busyLeft--
		return nil, common.ErrStorageBusy
	}
	return b.Storage.BeginTx(ctx)
}

func TestSetFollowUpRetriesBusyStorage(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	companyID := seedCompany(t, store, "Acme", "TX")
	followUp := time.Now().AddDate(0, 0, 7)
	stage := model.StagePreDemo
	id, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:    companyID,
		FirstName:    "Jane",
		Population:   model.PopulationEngaged,
		Stage:        &stage,
		FollowUpDate: &followUp,
	})
	require.NoError(t, err)

	flaky := &busyStorage{Storage: store, busyLeft: 1}
	engine.store = flaky

	when := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, engine.SetFollowUp(ctx, id, when, ""))
	assert.Zero(t, flaky.busyLeft)

	prospect, err := store.GetProspect(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, prospect.FollowUpDate)
	assert.True(t, prospect.FollowUpDate.Equal(when))
}
