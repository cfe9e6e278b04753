// Package intake implements the two-phase import funnel: a side-effect-free
// analysis pass that classifies incoming records against the existing
// store, and a commit pass that is the only writer.
package intake

import "github.com/jcourtner/leadpipe/internal/model"

// ImportRecord is a single untyped record from an import adapter. The
// funnel is agnostic to where records originate.
type ImportRecord struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	CompanyName string
	Title       string
	State       string
	Source      string
	Notes       string
}

// FullName returns the name used for fuzzy matching.
func (r *ImportRecord) FullName() string {
	name := r.FirstName
	if r.LastName != "" {
		if name != "" {
			name += " "
		}
		name += r.LastName
	}
	return name
}

// Classification is the analysis verdict for one record.
type Classification string

const (
	// StatusNew means no existing record matched; a prospect will be created.
	StatusNew Classification = "new"
	// StatusMerge means an existing prospect matched; fields and contact
	// methods will be merged, never duplicated.
	StatusMerge Classification = "merge"
	// StatusNeedsReview means only a phone matched. Phones are often shared
	// lines, so this never auto-merges.
	StatusNeedsReview Classification = "needs_review"
	// StatusBlockedDNC means a contact method matched a do-not-contact
	// prospect. The record is never committed under any circumstance.
	StatusBlockedDNC Classification = "blocked_dnc"
	// StatusIncomplete means the record has neither email nor phone; it
	// commits into the Broken population for research.
	StatusIncomplete Classification = "incomplete"
)

// Match reasons recorded on merge and review classifications.
const (
	MatchEmail     = "email"
	MatchFuzzyName = "fuzzy_name"
	MatchPhone     = "phone"
)

// Analysis is the result of analyzing a single record.
type Analysis struct {
	Record            ImportRecord
	Status            Classification
	MatchReason       string
	MatchedProspectID int64
	MatchConfidence   float64
}

// Preview categorizes an analyzed batch before commit. It carries no
// database state beyond prospect IDs; DNC status is always re-derived at
// commit time.
type Preview struct {
	ID          string
	SourceName  string
	Filename    string
	New         []Analysis
	Merge       []Analysis
	NeedsReview []Analysis
	BlockedDNC  []Analysis
	Incomplete  []Analysis
}

// TotalRecords returns the number of records analyzed.
func (p *Preview) TotalRecords() int {
	return len(p.New) + len(p.Merge) + len(p.NeedsReview) + len(p.BlockedDNC) + len(p.Incomplete)
}

// CanCommit reports whether the preview has anything to write.
func (p *Preview) CanCommit() bool {
	return len(p.New) > 0 || len(p.Merge) > 0 || len(p.Incomplete) > 0
}

// RecordFailure pairs a failed record with its error. Failures never abort
// the rest of the batch.
type RecordFailure struct {
	Err    error
	Record ImportRecord
}

// Result reports a committed batch.
type Result struct {
	Failed   []RecordFailure
	SourceID int64
	Imported int
	Merged   int
	Broken   int
}

// initialPopulation decides where a new record starts: complete records
// are chased, incomplete ones go to research.
func initialPopulation(record *ImportRecord) model.Population {
	if record.Email != "" && record.Phone != "" {
		return model.PopulationUnengaged
	}
	return model.PopulationBroken
}
