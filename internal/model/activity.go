package model

import "time"

// ActivityType is the kind of activity logged.
type ActivityType string

const (
	ActivityCall         ActivityType = "call"
	ActivityVoicemail    ActivityType = "voicemail"
	ActivityEmailSent    ActivityType = "email_sent"
	ActivityEmailRecv    ActivityType = "email_received"
	ActivityDemo         ActivityType = "demo"
	ActivityNote         ActivityType = "note"
	ActivityStatusChange ActivityType = "status_change"
	ActivityImport       ActivityType = "import"
	ActivityEnrichment   ActivityType = "enrichment"
	ActivityVerification ActivityType = "verification"
	ActivityReminder     ActivityType = "reminder"
)

// ActivityOutcome records how an activity went.
type ActivityOutcome string

const (
	OutcomeNoAnswer      ActivityOutcome = "no_answer"
	OutcomeLeftVM        ActivityOutcome = "left_vm"
	OutcomeSpokeWith     ActivityOutcome = "spoke_with"
	OutcomeInterested    ActivityOutcome = "interested"
	OutcomeNotInterested ActivityOutcome = "not_interested"
	OutcomeNotNow        ActivityOutcome = "not_now"
	OutcomeDemoSet       ActivityOutcome = "demo_set"
	OutcomeClosedWon     ActivityOutcome = "closed_won"
	OutcomeClosedLost    ActivityOutcome = "closed_lost"
	OutcomeBounced       ActivityOutcome = "bounced"
	OutcomeReplied       ActivityOutcome = "replied"
)

// Activity is an append-only audit event on a prospect. Activities are the
// sole source of historical truth; they are never mutated or deleted.
// The state machine is the only writer of transition activities.
type Activity struct {
	CreatedAt        time.Time
	FollowUpSet      *time.Time
	PopulationBefore *Population
	PopulationAfter  *Population
	StageBefore      *EngagementStage
	StageAfter       *EngagementStage
	Type             ActivityType
	Outcome          ActivityOutcome
	Notes            string
	CreatedBy        string
	ID               int64
	ProspectID       int64
}
