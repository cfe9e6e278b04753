package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func createTestCompany(t *testing.T, store *SQLiteStorage, name, state string) int64 {
	t.Helper()
	id, err := store.CreateCompany(context.Background(), &model.Company{
		Name:  name,
		State: state,
	})
	if err != nil {
		t.Fatalf("Failed to create company: %v", err)
	}
	return id
}

func createTestProspect(t *testing.T, store *SQLiteStorage, companyID int64, first, last string, population model.Population) int64 {
	t.Helper()
	id, err := store.CreateProspect(context.Background(), &model.Prospect{
		CompanyID:  companyID,
		FirstName:  first,
		LastName:   last,
		Population: population,
	})
	if err != nil {
		t.Fatalf("Failed to create prospect: %v", err)
	}
	return id
}

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("Schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Migrating again is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Errorf("Repeat migration failed: %v", err)
	}
}

func TestCompanyRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestCompany(t, store, "ABC Lending, LLC", "NY")

	company, err := store.GetCompany(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get company: %v", err)
	}
	if company.Name != "ABC Lending, LLC" {
		t.Errorf("Name = %q", company.Name)
	}
	if company.NameNormalized != "abc lending" {
		t.Errorf("NameNormalized = %q, want %q", company.NameNormalized, "abc lending")
	}
	if company.Timezone != "eastern" {
		t.Errorf("Timezone = %q, want eastern", company.Timezone)
	}

	// Lookup by any spelling that normalizes to the same key.
	found, err := store.GetCompanyByNormalizedName(ctx, "abc lending inc")
	if err != nil {
		t.Fatalf("Failed normalized lookup: %v", err)
	}
	if found.ID != id {
		t.Errorf("Normalized lookup returned company %d, want %d", found.ID, id)
	}

	if _, err := store.GetCompanyByNormalizedName(ctx, "nonexistent corp"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProspectRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyID := createTestCompany(t, store, "Acme Corp", "TX")
	followUp := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	stage := model.StageDemoScheduled

	id, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:    companyID,
		FirstName:    "Jane",
		LastName:     "Doe",
		Title:        "CFO",
		Population:   model.PopulationEngaged,
		Stage:        &stage,
		FollowUpDate: &followUp,
		AttemptCount: 2,
		Score:        80,
	})
	if err != nil {
		t.Fatalf("Failed to create prospect: %v", err)
	}

	prospect, err := store.GetProspect(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get prospect: %v", err)
	}
	if prospect.Population != model.PopulationEngaged {
		t.Errorf("Population = %q", prospect.Population)
	}
	if prospect.Stage == nil || *prospect.Stage != model.StageDemoScheduled {
		t.Errorf("Stage = %v", prospect.Stage)
	}
	if prospect.FollowUpDate == nil || !prospect.FollowUpDate.Equal(followUp) {
		t.Errorf("FollowUpDate = %v", prospect.FollowUpDate)
	}

	prospect.Population = model.PopulationLost
	prospect.Stage = nil
	prospect.FollowUpDate = nil
	prospect.LostReason = model.LostTiming
	if err := store.UpdateProspect(ctx, prospect); err != nil {
		t.Fatalf("Failed to update prospect: %v", err)
	}

	updated, err := store.GetProspect(ctx, id)
	if err != nil {
		t.Fatalf("Failed to re-get prospect: %v", err)
	}
	if updated.Population != model.PopulationLost {
		t.Errorf("Population after update = %q", updated.Population)
	}
	if updated.Stage != nil || updated.FollowUpDate != nil {
		t.Error("Stage and FollowUpDate should be cleared")
	}
	if updated.LostReason != model.LostTiming {
		t.Errorf("LostReason = %q", updated.LostReason)
	}
}

func TestProspectNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.GetProspect(ctx, 9999); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetProspect: expected ErrNotFound, got %v", err)
	}

	companyID := createTestCompany(t, store, "Acme", "")
	err := store.UpdateProspect(ctx, &model.Prospect{
		ID:         9999,
		CompanyID:  companyID,
		Population: model.PopulationBroken,
	})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("UpdateProspect: expected ErrNotFound, got %v", err)
	}
}

func TestProspectFilter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyA := createTestCompany(t, store, "Alpha", "")
	companyB := createTestCompany(t, store, "Beta", "")
	createTestProspect(t, store, companyA, "A", "One", model.PopulationBroken)
	createTestProspect(t, store, companyA, "A", "Two", model.PopulationUnengaged)
	createTestProspect(t, store, companyB, "B", "One", model.PopulationUnengaged)

	unengaged := model.PopulationUnengaged
	prospects, err := store.GetProspects(ctx, service.ProspectFilter{Population: &unengaged})
	if err != nil {
		t.Fatalf("Failed to filter by population: %v", err)
	}
	if len(prospects) != 2 {
		t.Errorf("Expected 2 unengaged prospects, got %d", len(prospects))
	}

	prospects, err = store.GetProspects(ctx, service.ProspectFilter{CompanyID: &companyA})
	if err != nil {
		t.Fatalf("Failed to filter by company: %v", err)
	}
	if len(prospects) != 2 {
		t.Errorf("Expected 2 prospects at company A, got %d", len(prospects))
	}

	prospects, err = store.GetProspects(ctx, service.ProspectFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to limit: %v", err)
	}
	if len(prospects) != 1 {
		t.Errorf("Expected 1 prospect with limit, got %d", len(prospects))
	}
}

func TestFindProspectByContactMethod(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyID := createTestCompany(t, store, "Acme", "")
	prospectID := createTestProspect(t, store, companyID, "Jane", "Doe", model.PopulationUnengaged)

	_, err := store.CreateContactMethod(ctx, &model.ContactMethod{
		ProspectID: prospectID,
		Type:       model.ContactEmail,
		Value:      "Jane.Doe@Acme.COM",
	})
	if err != nil {
		t.Fatalf("Failed to create email method: %v", err)
	}
	_, err = store.CreateContactMethod(ctx, &model.ContactMethod{
		ProspectID: prospectID,
		Type:       model.ContactPhone,
		Value:      "+1 (555) 123-4567",
	})
	if err != nil {
		t.Fatalf("Failed to create phone method: %v", err)
	}

	// Lookup is case-insensitive through normalization.
	id, err := store.FindProspectByEmail(ctx, "JANE.DOE@acme.com")
	if err != nil {
		t.Fatalf("Failed email lookup: %v", err)
	}
	if id != prospectID {
		t.Errorf("Email lookup = %d, want %d", id, prospectID)
	}

	// Phone matches on digits regardless of formatting.
	id, err = store.FindProspectByPhone(ctx, "555.123.4567")
	if err != nil {
		t.Fatalf("Failed phone lookup: %v", err)
	}
	if id != prospectID {
		t.Errorf("Phone lookup = %d, want %d", id, prospectID)
	}

	if _, err := store.FindProspectByEmail(ctx, "nobody@acme.com"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestIsDNC(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyID := createTestCompany(t, store, "Acme", "")
	dncID := createTestProspect(t, store, companyID, "Dead", "Contact", model.PopulationDeadDNC)
	liveID := createTestProspect(t, store, companyID, "Live", "Contact", model.PopulationUnengaged)

	for prospectID, email := range map[int64]string{
		dncID:  "dead@acme.com",
		liveID: "live@acme.com",
	} {
		if _, err := store.CreateContactMethod(ctx, &model.ContactMethod{
			ProspectID: prospectID,
			Type:       model.ContactEmail,
			Value:      email,
		}); err != nil {
			t.Fatalf("Failed to create contact method: %v", err)
		}
	}
	if _, err := store.CreateContactMethod(ctx, &model.ContactMethod{
		ProspectID: dncID,
		Type:       model.ContactPhone,
		Value:      "(555) 999-0000",
	}); err != nil {
		t.Fatalf("Failed to create phone method: %v", err)
	}

	tests := []struct {
		name  string
		email string
		phone string
		want  bool
	}{
		{name: "dnc email", email: "dead@acme.com", want: true},
		{name: "dnc email different case", email: "DEAD@ACME.COM", want: true},
		{name: "dnc phone different format", phone: "+1 555 999 0000", want: true},
		{name: "live email", email: "live@acme.com", want: false},
		{name: "unknown email", email: "stranger@acme.com", want: false},
		{name: "empty both", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, err := store.IsDNC(ctx, tt.email, tt.phone)
			if err != nil {
				t.Fatalf("IsDNC failed: %v", err)
			}
			if hit != tt.want {
				t.Errorf("IsDNC(%q, %q) = %v, want %v", tt.email, tt.phone, hit, tt.want)
			}
		})
	}
}

func TestGetOverdueProspects(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyID := createTestCompany(t, store, "Acme", "")
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	makeProspect := func(name string, population model.Population, followUp *time.Time) int64 {
		t.Helper()
		p := &model.Prospect{
			CompanyID:    companyID,
			FirstName:    name,
			Population:   population,
			FollowUpDate: followUp,
		}
		if population == model.PopulationEngaged {
			stage := model.StagePreDemo
			p.Stage = &stage
		}
		id, err := store.CreateProspect(ctx, p)
		if err != nil {
			t.Fatalf("Failed to create prospect: %v", err)
		}
		return id
	}

	wayPast := now.AddDate(0, 0, -10)
	past := now.AddDate(0, 0, -2)
	future := now.AddDate(0, 0, 3)

	older := makeProspect("Older", model.PopulationEngaged, &wayPast)
	newer := makeProspect("Newer", model.PopulationUnengaged, &past)
	makeProspect("Future", model.PopulationEngaged, &future)
	makeProspect("NoDate", model.PopulationUnengaged, nil)
	makeProspect("Won", model.PopulationClosedWon, &wayPast)
	makeProspect("Partner", model.PopulationPartnership, &wayPast)

	overdue, err := store.GetOverdueProspects(ctx, now)
	if err != nil {
		t.Fatalf("Failed to get overdue: %v", err)
	}
	if len(overdue) != 2 {
		t.Fatalf("Expected 2 overdue prospects, got %d", len(overdue))
	}
	// Most overdue first.
	if overdue[0].ID != older || overdue[1].ID != newer {
		t.Errorf("Overdue order = [%d, %d], want [%d, %d]",
			overdue[0].ID, overdue[1].ID, older, newer)
	}
}

func TestGetOrphanedEngaged(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyID := createTestCompany(t, store, "Acme", "")

	// An orphan can only exist by bypassing the state machine, which is
	// exactly what writing storage directly does.
	stage := model.StagePreDemo
	orphanID, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:  companyID,
		FirstName:  "Orphan",
		Population: model.PopulationEngaged,
		Stage:      &stage,
	})
	if err != nil {
		t.Fatalf("Failed to create orphan: %v", err)
	}

	followUp := time.Now().AddDate(0, 0, 5)
	stage2 := model.StageClosing
	if _, err := store.CreateProspect(ctx, &model.Prospect{
		CompanyID:    companyID,
		FirstName:    "Healthy",
		Population:   model.PopulationEngaged,
		Stage:        &stage2,
		FollowUpDate: &followUp,
	}); err != nil {
		t.Fatalf("Failed to create healthy prospect: %v", err)
	}

	orphans, err := store.GetOrphanedEngaged(ctx)
	if err != nil {
		t.Fatalf("Failed to get orphans: %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != orphanID {
		t.Errorf("Orphans = %v, want exactly prospect %d", orphans, orphanID)
	}
}

func TestActivitiesAppendOnly(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyID := createTestCompany(t, store, "Acme", "")
	prospectID := createTestProspect(t, store, companyID, "Jane", "Doe", model.PopulationUnengaged)

	before := model.PopulationUnengaged
	after := model.PopulationEngaged
	stageAfter := model.StagePreDemo
	if _, err := store.CreateActivity(ctx, &model.Activity{
		ProspectID:       prospectID,
		Type:             model.ActivityStatusChange,
		PopulationBefore: &before,
		PopulationAfter:  &after,
		StageAfter:       &stageAfter,
		Notes:            "engaged after demo request",
	}); err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}
	if _, err := store.CreateActivity(ctx, &model.Activity{
		ProspectID: prospectID,
		Type:       model.ActivityCall,
		Outcome:    model.OutcomeSpokeWith,
	}); err != nil {
		t.Fatalf("Failed to create call activity: %v", err)
	}

	activities, err := store.GetActivities(ctx, prospectID)
	if err != nil {
		t.Fatalf("Failed to get activities: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("Expected 2 activities, got %d", len(activities))
	}
	first := activities[0]
	if first.Type != model.ActivityStatusChange {
		t.Errorf("Type = %q", first.Type)
	}
	if first.PopulationBefore == nil || *first.PopulationBefore != model.PopulationUnengaged {
		t.Errorf("PopulationBefore = %v", first.PopulationBefore)
	}
	if first.PopulationAfter == nil || *first.PopulationAfter != model.PopulationEngaged {
		t.Errorf("PopulationAfter = %v", first.PopulationAfter)
	}
	if first.StageAfter == nil || *first.StageAfter != model.StagePreDemo {
		t.Errorf("StageAfter = %v", first.StageAfter)
	}
	if first.CreatedBy != "user" {
		t.Errorf("CreatedBy = %q, want default 'user'", first.CreatedBy)
	}
}

func TestTransactionRollback(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	companyID := createTestCompany(t, store, "Acme", "")

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if _, err := tx.CreateProspect(ctx, &model.Prospect{
		CompanyID:  companyID,
		FirstName:  "Ghost",
		Population: model.PopulationBroken,
	}); err != nil {
		t.Fatalf("Failed to create prospect in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to rollback: %v", err)
	}

	prospects, err := store.GetProspects(ctx, service.ProspectFilter{})
	if err != nil {
		t.Fatalf("Failed to list prospects: %v", err)
	}
	if len(prospects) != 0 {
		t.Errorf("Expected no prospects after rollback, got %d", len(prospects))
	}
}

func TestCreateImportSource(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	id, err := store.CreateImportSource(ctx, &model.ImportSource{
		SourceName:        "conference-2026",
		Filename:          "leads.csv",
		TotalRecords:      10,
		ImportedRecords:   7,
		DuplicateRecords:  2,
		DNCBlockedRecords: 1,
	})
	if err != nil {
		t.Fatalf("Failed to create import source: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero import source ID")
	}

	if _, err := store.CreateImportSource(ctx, &model.ImportSource{}); err == nil {
		t.Error("Expected error for missing source name")
	}
}
