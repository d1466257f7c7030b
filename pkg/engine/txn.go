package engine

import (
	"errors"
	"fmt"
)

// Phase is the state of an optimistic interaction
type Phase int

const (
	PhaseTentative Phase = iota // local state applied, persistence in flight
	PhaseCommitted              // persistence confirmed
	PhaseReverted               // persistence failed, compensation applied
)

func (p Phase) String() string {
	switch p {
	case PhaseTentative:
		return "tentative"
	case PhaseCommitted:
		return "committed"
	case PhaseReverted:
		return "reverted"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ErrSettled is returned when a settled Txn is committed or reverted again
var ErrSettled = errors.New("interaction already settled")

// Txn models a drag as a two-phase commit: a tentative local change that is
// either committed once the collaborator confirms it, or compensated.
type Txn struct {
	phase      Phase
	compensate func()
}

// Begin applies the tentative change and returns the open Txn.
// compensate must restore the pre-interaction state.
func Begin(apply, compensate func()) *Txn {
	if apply != nil {
		apply()
	}
	return &Txn{phase: PhaseTentative, compensate: compensate}
}

// Phase reports the current phase
func (t *Txn) Phase() Phase {
	return t.phase
}

// Commit keeps the tentative state
func (t *Txn) Commit() error {
	if t.phase != PhaseTentative {
		return ErrSettled
	}
	t.phase = PhaseCommitted
	return nil
}

// Revert applies the compensating transition
func (t *Txn) Revert() error {
	if t.phase != PhaseTentative {
		return ErrSettled
	}
	t.phase = PhaseReverted
	if t.compensate != nil {
		t.compensate()
	}
	return nil
}

// Settle commits when err is nil and reverts otherwise. It returns err.
func (t *Txn) Settle(err error) error {
	if err != nil {
		_ = t.Revert()
		return err
	}
	_ = t.Commit()
	return nil
}
