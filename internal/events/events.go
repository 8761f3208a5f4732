// Package events implements the EventEntry audit trail the error-handling
// design calls for: engines emit an EventEntry instead of
// propagating tool/business errors past their run boundary, so a UI or
// operator can see e.g. "Can not sync foo: blacklisted" after the fact.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind is an EventEntry's severity.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// EventEntry is one audit-trail record.
type EventEntry struct {
	UUID   uuid.UUID
	Kind   Kind
	Module string
	Time   time.Time
	Title  string
	Text   string
}

// Sink persists events; internal/store.Store implements it.
type Sink interface {
	AddEvent(ctx context.Context, e *EventEntry) error
}

// Emitter is a thin per-module wrapper around a Sink, used by the
// synchrotron/spears/debcheck engines so call sites read as
// `emitter.Info(ctx, "foo blacklisted", text)` instead of constructing EventEntry
// values inline.
type Emitter struct {
	Sink   Sink
	Module string
}

// NewEmitter binds an Emitter to one module name.
func NewEmitter(sink Sink, module string) *Emitter {
	return &Emitter{Sink: sink, Module: module}
}

func (e *Emitter) emit(ctx context.Context, kind Kind, title, text string) error {
	return e.Sink.AddEvent(ctx, &EventEntry{
		Kind:   kind,
		Module: e.Module,
		Time:   time.Now().UTC(),
		Title:  title,
		Text:   text,
	})
}

// Info records an informational event.
func (e *Emitter) Info(ctx context.Context, title, text string) error {
	return e.emit(ctx, KindInfo, title, text)
}

// Warning records a warning event (e.g. a skipped malformed stanza).
func (e *Emitter) Warning(ctx context.Context, title, text string) error {
	return e.emit(ctx, KindWarning, title, text)
}

// Error records an error event (e.g. a persisted SynchrotronIssue).
func (e *Emitter) Error(ctx context.Context, title, text string) error {
	return e.emit(ctx, KindError, title, text)
}
