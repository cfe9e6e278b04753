package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/config"
	"github.com/jcourtner/leadpipe/internal/model"
	"github.com/jcourtner/leadpipe/internal/pipeline"
	"github.com/jcourtner/leadpipe/internal/service"
)

// Funnel deduplicates and admits external records.
//
// Three-pass deduplication: exact email means the same person, fuzzy
// name+company above the threshold means a likely duplicate, a bare phone
// match only flags for review. DNC is checked before any of that: a hit is
// blocked, never merged, never updated, never reactivated.
type Funnel struct {
	store     service.Storage
	cfg       *config.Config
	retryOpts service.RetryOptions
}

// NewFunnel creates an intake funnel.
func NewFunnel(store service.Storage, cfg *config.Config) *Funnel {
	return &Funnel{
		store: store,
		cfg:   cfg,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Analyze classifies records against the existing store. It performs no
// writes and is safe to cancel or repeat; identical inputs against an
// unchanged store produce identical classifications.
func (f *Funnel) Analyze(ctx context.Context, records []ImportRecord, sourceName, filename string) (*Preview, error) {
	preview := &Preview{
		ID:         uuid.New().String(),
		SourceName: sourceName,
		Filename:   filename,
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		analysis, err := f.analyzeRecord(ctx, record)
		if err != nil {
			return nil, err
		}

		switch analysis.Status {
		case StatusBlockedDNC:
			preview.BlockedDNC = append(preview.BlockedDNC, analysis)
		case StatusMerge:
			preview.Merge = append(preview.Merge, analysis)
		case StatusNeedsReview:
			preview.NeedsReview = append(preview.NeedsReview, analysis)
		case StatusIncomplete:
			preview.Incomplete = append(preview.Incomplete, analysis)
		case StatusNew:
			preview.New = append(preview.New, analysis)
		}
	}

	slog.Info("Import analysis complete",
		"total", preview.TotalRecords(),
		"new", len(preview.New),
		"merge", len(preview.Merge),
		"review", len(preview.NeedsReview),
		"dnc_blocked", len(preview.BlockedDNC),
		"incomplete", len(preview.Incomplete))

	return preview, nil
}

// analyzeRecord classifies one record. Check order is a compliance
// contract: DNC runs first, unconditionally, and a hit stops everything
// else.
func (f *Funnel) analyzeRecord(ctx context.Context, record ImportRecord) (Analysis, error) {
	analysis := Analysis{Record: record, Status: StatusNew}

	blocked, err := f.store.IsDNC(ctx, record.Email, record.Phone)
	if err != nil {
		return analysis, err
	}
	if blocked {
		analysis.Status = StatusBlockedDNC
		return analysis, nil
	}

	if record.Email != "" {
		id, err := f.store.FindProspectByEmail(ctx, record.Email)
		switch {
		case err == nil:
			analysis.Status = StatusMerge
			analysis.MatchedProspectID = id
			analysis.MatchReason = MatchEmail
			analysis.MatchConfidence = 1.0
			return analysis, nil
		case !errors.Is(err, common.ErrNotFound):
			return analysis, err
		}
	}

	if record.FirstName != "" && record.LastName != "" && record.CompanyName != "" {
		id, confidence, err := f.fuzzyMatch(ctx, &record)
		if err != nil {
			return analysis, err
		}
		if id != 0 {
			analysis.Status = StatusMerge
			analysis.MatchedProspectID = id
			analysis.MatchReason = MatchFuzzyName
			analysis.MatchConfidence = confidence
			return analysis, nil
		}
	}

	if record.Phone != "" {
		id, err := f.store.FindProspectByPhone(ctx, record.Phone)
		switch {
		case err == nil:
			analysis.Status = StatusNeedsReview
			analysis.MatchedProspectID = id
			analysis.MatchReason = MatchPhone
			return analysis, nil
		case !errors.Is(err, common.ErrNotFound):
			return analysis, err
		}
	}

	if record.Email == "" && record.Phone == "" {
		analysis.Status = StatusIncomplete
		return analysis, nil
	}

	return analysis, nil
}

// fuzzyMatch finds the best name match among prospects at the same
// company. Returns the prospect ID and confidence, or zero when nothing
// clears the threshold.
func (f *Funnel) fuzzyMatch(ctx context.Context, record *ImportRecord) (int64, float64, error) {
	company, err := f.store.GetCompanyByNormalizedName(ctx, record.CompanyName)
	if errors.Is(err, common.ErrNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	prospects, err := f.store.GetProspects(ctx, service.ProspectFilter{
		CompanyID: &company.ID,
		Limit:     500,
	})
	if err != nil {
		return 0, 0, err
	}

	var bestID int64
	var bestConfidence float64
	fullName := record.FullName()
	for i := range prospects {
		confidence := NameSimilarity(fullName, prospects[i].FullName())
		if confidence >= f.cfg.SimilarityThreshold && confidence > bestConfidence {
			bestID = prospects[i].ID
			bestConfidence = confidence
		}
	}
	return bestID, bestConfidence, nil
}

// Commit writes an analyzed preview: new and incomplete records become
// prospects, merge records fold into their match. Each record commits in
// its own transaction with a live DNC re-check inside it, so a prospect
// marked do-not-contact between analyze and commit still blocks. Records
// that hit storage contention retry with backoff; failures are collected
// per record and never abort the rest of the batch.
//
// progress, if non-nil, is called after each attempted record.
func (f *Funnel) Commit(ctx context.Context, preview *Preview, progress func(done, total int)) (*Result, error) {
	result := &Result{}
	total := len(preview.New) + len(preview.Incomplete) + len(preview.Merge)
	done := 0

	step := func() {
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	for _, analysis := range append(append([]Analysis{}, preview.New...), preview.Incomplete...) {
		err := common.WithRetry(ctx, func() error {
			return f.commitNew(ctx, preview, &analysis, result)
		}, f.retryOpts)
		if err != nil {
			result.Failed = append(result.Failed, RecordFailure{Record: analysis.Record, Err: err})
			common.LogError(err, "Import record failed", common.Fields{
				"name":  analysis.Record.FullName(),
				"email": analysis.Record.Email,
			})
		}
		step()
	}

	for _, analysis := range preview.Merge {
		err := common.WithRetry(ctx, func() error {
			return f.commitMerge(ctx, preview, &analysis, result)
		}, f.retryOpts)
		if err != nil {
			result.Failed = append(result.Failed, RecordFailure{Record: analysis.Record, Err: err})
			common.LogError(err, "Import merge failed", common.Fields{
				"name":        analysis.Record.FullName(),
				"prospect_id": analysis.MatchedProspectID,
			})
		}
		step()
	}

	source := &model.ImportSource{
		SourceName:        preview.SourceName,
		Filename:          preview.Filename,
		TotalRecords:      preview.TotalRecords(),
		ImportedRecords:   result.Imported,
		DuplicateRecords:  result.Merged,
		BrokenRecords:     result.Broken,
		DNCBlockedRecords: len(preview.BlockedDNC),
	}
	sourceID, err := f.store.CreateImportSource(ctx, source)
	if err != nil {
		return result, err
	}
	result.SourceID = sourceID

	slog.Info("Import committed",
		"imported", result.Imported,
		"merged", result.Merged,
		"broken", result.Broken,
		"failed", len(result.Failed),
		"source_id", sourceID)

	return result, nil
}

// commitNew creates company, prospect, contact methods and the import
// activity for one record inside a single transaction.
func (f *Funnel) commitNew(ctx context.Context, preview *Preview, analysis *Analysis, result *Result) error {
	record := analysis.Record

	tx, err := f.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// DNC status may have changed since analysis; the check must share the
	// transaction with the writes.
	blocked, err := tx.IsDNC(ctx, record.Email, record.Phone)
	if err != nil {
		return err
	}
	if blocked {
		return common.NewUserError(
			fmt.Sprintf("record %q matches a do-not-contact prospect and cannot be imported", record.FullName()),
			common.ErrDNCViolation)
	}

	companyID, err := f.findOrCreateCompany(ctx, tx, &record)
	if err != nil {
		return err
	}

	source := record.Source
	if source == "" {
		source = preview.SourceName
	}
	prospect := &model.Prospect{
		CompanyID:  companyID,
		FirstName:  record.FirstName,
		LastName:   record.LastName,
		Title:      record.Title,
		Population: initialPopulation(&record),
		Source:     source,
		Notes:      record.Notes,
	}
	if err := pipeline.CheckInvariants(prospect); err != nil {
		return err
	}
	prospectID, err := tx.CreateProspect(ctx, prospect)
	if err != nil {
		return err
	}

	if record.Email != "" {
		method := &model.ContactMethod{
			ProspectID: prospectID,
			Type:       model.ContactEmail,
			Value:      model.NormalizeEmail(record.Email),
			IsPrimary:  true,
			Source:     preview.SourceName,
		}
		if _, err := tx.CreateContactMethod(ctx, method); err != nil {
			return err
		}
	}
	if record.Phone != "" {
		method := &model.ContactMethod{
			ProspectID: prospectID,
			Type:       model.ContactPhone,
			Value:      record.Phone,
			IsPrimary:  record.Email == "",
			Source:     preview.SourceName,
		}
		if _, err := tx.CreateContactMethod(ctx, method); err != nil {
			return err
		}
	}

	provenance := preview.SourceName
	if provenance == "" {
		provenance = preview.Filename
	}
	activity := &model.Activity{
		ProspectID: prospectID,
		Type:       model.ActivityImport,
		Notes:      fmt.Sprintf("Imported from %s", provenance),
		CreatedBy:  "system",
	}
	if _, err := tx.CreateActivity(ctx, activity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	result.Imported++
	if prospect.Population == model.PopulationBroken {
		result.Broken++
	}
	return nil
}

// commitMerge folds one record into its matched prospect. Existing
// non-empty fields always win; only genuinely new information lands.
func (f *Funnel) commitMerge(ctx context.Context, preview *Preview, analysis *Analysis, result *Result) error {
	record := analysis.Record
	if analysis.MatchedProspectID == 0 {
		return fmt.Errorf("%w: merge record has no matched prospect", common.ErrValidation)
	}

	tx, err := f.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	prospect, err := tx.GetProspect(ctx, analysis.MatchedProspectID)
	if err != nil {
		return err
	}

	// Merging into a DNC prospect is a compliance violation regardless of
	// what analysis said earlier.
	if prospect.Population == model.PopulationDeadDNC {
		return common.NewUserError(
			fmt.Sprintf("prospect %q is marked do-not-contact and can never be merged into", prospect.FullName()),
			common.ErrDNCViolation)
	}
	blocked, err := tx.IsDNC(ctx, record.Email, record.Phone)
	if err != nil {
		return err
	}
	if blocked {
		return common.NewUserError(
			fmt.Sprintf("record %q matches a do-not-contact prospect and cannot be merged", record.FullName()),
			common.ErrDNCViolation)
	}

	updated := false
	if prospect.Title == "" && record.Title != "" {
		prospect.Title = record.Title
		updated = true
	}
	if prospect.Notes == "" && record.Notes != "" {
		prospect.Notes = record.Notes
		updated = true
	}
	if prospect.Source == "" && record.Source != "" {
		prospect.Source = record.Source
		updated = true
	}
	if updated {
		if err := tx.UpdateProspect(ctx, prospect); err != nil {
			return err
		}
	}

	methods, err := tx.GetContactMethods(ctx, prospect.ID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(methods))
	for i := range methods {
		seen[string(methods[i].Type)+":"+methods[i].NormalizedValue()] = true
	}

	if record.Email != "" && !seen["email:"+model.NormalizeEmail(record.Email)] {
		method := &model.ContactMethod{
			ProspectID: prospect.ID,
			Type:       model.ContactEmail,
			Value:      model.NormalizeEmail(record.Email),
			Source:     preview.SourceName,
		}
		if _, err := tx.CreateContactMethod(ctx, method); err != nil {
			return err
		}
	}
	if record.Phone != "" && !seen["phone:"+model.NormalizePhone(record.Phone)] {
		method := &model.ContactMethod{
			ProspectID: prospect.ID,
			Type:       model.ContactPhone,
			Value:      record.Phone,
			Source:     preview.SourceName,
		}
		if _, err := tx.CreateContactMethod(ctx, method); err != nil {
			return err
		}
	}

	provenance := preview.SourceName
	if provenance == "" {
		provenance = preview.Filename
	}
	activity := &model.Activity{
		ProspectID: prospect.ID,
		Type:       model.ActivityEnrichment,
		Notes:      fmt.Sprintf("Merged from import: %s (match: %s)", provenance, analysis.MatchReason),
		CreatedBy:  "system",
	}
	if _, err := tx.CreateActivity(ctx, activity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	result.Merged++
	return nil
}

func (f *Funnel) findOrCreateCompany(ctx context.Context, tx service.Transaction, record *ImportRecord) (int64, error) {
	name := record.CompanyName
	if name == "" {
		name = "Unknown"
	}

	company, err := tx.GetCompanyByNormalizedName(ctx, name)
	if err == nil {
		return company.ID, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return 0, err
	}

	return tx.CreateCompany(ctx, &model.Company{
		Name:  name,
		State: record.State,
	})
}
