package engine

import "fmt"

// StateError indicates an operation that would move an entity backwards
// through its lifecycle (egg statuses only ever advance).
type StateError struct {
	Entity string
	From   string
	To     string
}

func (e StateError) Error() string {
	return fmt.Sprintf("%s cannot transition from %q to %q", e.Entity, e.From, e.To)
}

// InsufficientEnergyError is returned when a spend would drive the player's
// energy negative.
type InsufficientEnergyError struct {
	Have float64
	Want float64
}

func (e InsufficientEnergyError) Error() string {
	return fmt.Sprintf("insufficient energy: have %.0f, want %.0f", e.Have, e.Want)
}
