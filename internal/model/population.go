// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// Population is the top-level pipeline state of a prospect.
type Population string

const (
	// PopulationBroken indicates a prospect missing contact data.
	PopulationBroken Population = "broken"
	// PopulationUnengaged indicates complete data, system-paced outreach.
	PopulationUnengaged Population = "unengaged"
	// PopulationEngaged indicates the prospect showed interest (prospect-paced).
	PopulationEngaged Population = "engaged"
	// PopulationParked indicates a date-specific pause until a named month.
	PopulationParked Population = "parked"
	// PopulationDeadDNC is the permanent Do-Not-Contact state. Terminal, absolute.
	PopulationDeadDNC Population = "dead_dnc"
	// PopulationLost indicates the prospect went elsewhere or is not buying.
	PopulationLost Population = "lost"
	// PopulationPartnership indicates a non-prospect relationship contact.
	PopulationPartnership Population = "partnership"
	// PopulationClosedWon indicates a successfully closed deal.
	PopulationClosedWon Population = "closed_won"
)

// Populations lists every valid population value.
var Populations = []Population{
	PopulationBroken,
	PopulationUnengaged,
	PopulationEngaged,
	PopulationParked,
	PopulationDeadDNC,
	PopulationLost,
	PopulationPartnership,
	PopulationClosedWon,
}

// ParsePopulation converts a stored string into a Population.
func ParsePopulation(s string) (Population, error) {
	switch Population(s) {
	case PopulationBroken, PopulationUnengaged, PopulationEngaged,
		PopulationParked, PopulationDeadDNC, PopulationLost,
		PopulationPartnership, PopulationClosedWon:
		return Population(s), nil
	default:
		return "", fmt.Errorf("unknown population %q", s)
	}
}

// IsTerminal reports whether a population has no outgoing transitions.
func (p Population) IsTerminal() bool {
	switch p {
	case PopulationDeadDNC, PopulationClosedWon, PopulationPartnership:
		return true
	default:
		return false
	}
}

// EngagementStage is the sub-state within the Engaged population.
type EngagementStage string

const (
	// StagePreDemo is the initial engaged stage.
	StagePreDemo EngagementStage = "pre_demo"
	// StageDemoScheduled indicates a demo on the calendar.
	StageDemoScheduled EngagementStage = "demo_scheduled"
	// StagePostDemo indicates the demo happened.
	StagePostDemo EngagementStage = "post_demo"
	// StageClosing indicates active close negotiation.
	StageClosing EngagementStage = "closing"
)

// EngagementStages lists every valid stage in pipeline order.
var EngagementStages = []EngagementStage{
	StagePreDemo,
	StageDemoScheduled,
	StagePostDemo,
	StageClosing,
}

// ParseEngagementStage converts a stored string into an EngagementStage.
func ParseEngagementStage(s string) (EngagementStage, error) {
	switch EngagementStage(s) {
	case StagePreDemo, StageDemoScheduled, StagePostDemo, StageClosing:
		return EngagementStage(s), nil
	default:
		return "", fmt.Errorf("unknown engagement stage %q", s)
	}
}
