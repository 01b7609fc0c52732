// Package screens holds the state of the console's screens: the CRUD forms
// for customers and recipes, the dashboard home and the public recipe list.
// Rendering lives in the cli package.
package screens

import (
	"errors"
	"sync"
)

var (
	ErrFormBusy   = errors.New("form is submitting")
	ErrFormClosed = errors.New("form is not open")
	ErrMissingID  = errors.New("record being edited has no id")
	ErrNotInList  = errors.New("record is not in the list")
)

type Mode int

const (
	Idle Mode = iota
	Adding
	Editing
	Submitting
)

func (m Mode) String() string {
	switch m {
	case Adding:
		return "adding"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return "idle"
}

// Form is the single pending form of a screen. Opening it for add or edit
// always starts from a fresh draft.
type Form[T any] struct {
	mu        sync.Mutex
	mode      Mode
	prior     Mode
	draft     T
	currentID string
}

// StartAdd opens an empty form.
func (f *Form[T]) StartAdd() error {
	return f.open(Adding, "", *new(T))
}

// StartEdit opens the form on a copy of rec.
func (f *Form[T]) StartEdit(id string, rec T) error {
	return f.open(Editing, id, rec)
}

func (f *Form[T]) open(mode Mode, id string, draft T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == Submitting {
		return ErrFormBusy
	}
	f.mode = mode
	f.currentID = id
	f.draft = draft
	return nil
}

// Cancel closes the form and discards the draft.
func (f *Form[T]) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == Submitting {
		return ErrFormBusy
	}
	f.reset()
	return nil
}

func (f *Form[T]) reset() {
	var zero T
	f.mode = Idle
	f.prior = Idle
	f.currentID = ""
	f.draft = zero
}

// Edit changes the draft in place.
func (f *Form[T]) Edit(fn func(*T)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.mode {
	case Idle:
		return ErrFormClosed
	case Submitting:
		return ErrFormBusy
	}
	fn(&f.draft)
	return nil
}

func (f *Form[T]) Draft() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *Form[T]) CurrentID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentID
}

func (f *Form[T]) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Visible reports whether the form is shown.
func (f *Form[T]) Visible() bool { return f.Mode() != Idle }

// EditMode reports whether the form edits an existing record, including
// while that edit is being submitted.
func (f *Form[T]) EditMode() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode == Editing || (f.mode == Submitting && f.prior == Editing)
}

// begin moves the form to Submitting and returns what is being submitted.
func (f *Form[T]) begin() (draft T, id string, editing bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.mode {
	case Idle:
		return draft, "", false, ErrFormClosed
	case Submitting:
		return draft, "", false, ErrFormBusy
	}
	f.prior = f.mode
	f.mode = Submitting
	return f.draft, f.currentID, f.prior == Editing, nil
}

// succeed closes the form after a successful submit.
func (f *Form[T]) succeed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

// fail returns to the state before the submit with the draft intact.
func (f *Form[T]) fail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = f.prior
}
