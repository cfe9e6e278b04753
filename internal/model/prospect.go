package model

import (
	"strings"
	"time"
)

// LostReason records why a prospect was lost.
type LostReason string

const (
	LostToCompetitor LostReason = "lost_to_competitor"
	LostNotBuying    LostReason = "not_buying"
	LostTiming       LostReason = "timing"
	LostBudget       LostReason = "budget"
	LostOutOfBiz     LostReason = "out_of_business"
)

// ParseLostReason converts a stored string into a LostReason.
func ParseLostReason(s string) (LostReason, bool) {
	switch LostReason(s) {
	case LostToCompetitor, LostNotBuying, LostTiming, LostBudget, LostOutOfBiz:
		return LostReason(s), true
	default:
		return "", false
	}
}

// DeadReasonDNC is the only dead reason the core writes; enrichment layers
// may record others.
const DeadReasonDNC = "dnc"

// Prospect represents a single contact and their pipeline state.
type Prospect struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FollowUpDate    *time.Time
	LastContactDate *time.Time
	DeadDate        *time.Time
	LostDate        *time.Time
	Stage           *EngagementStage
	ReferredBy      *int64
	FirstName       string
	LastName        string
	Title           string
	Source          string
	Notes           string
	ParkedMonth     string // YYYY-MM, set only while Parked
	DeadReason      string
	LostReason      LostReason
	LostCompetitor  string
	Population      Population
	ID              int64
	CompanyID       int64
	AttemptCount    int
	Score           int
	DataConfidence  int
}

// FullName returns the display name used for fuzzy matching.
func (p *Prospect) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
