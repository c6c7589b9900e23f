package ui

import (
	"context"
	"errors"
	"time"

	"schedule/internal/taskwarrior"
)

// ClearKey is the reserved digit that unsets the active fields instead of
// assigning a configured value.
const ClearKey = "0"

// Modifier is the record mutator: one call per (uuid, field) pair. An empty
// value clears the field.
type Modifier interface {
	Modify(ctx context.Context, uuid string, field taskwarrior.DateField, value string) error
}

var (
	// ErrUnboundKey means the pressed digit has no configured date value.
	ErrUnboundKey = errors.New("no date value configured for key")
	// ErrNoActiveFields means a batch edit was attempted with every date
	// field toggled off.
	ErrNoActiveFields = errors.New("no active date fields")
	// ErrNoTargets means there is neither a selection nor a record under
	// the cursor.
	ErrNoTargets = errors.New("no tasks to modify")
)

// Pair is one independent unit of a batch edit.
type Pair struct {
	UUID  string
	Field taskwarrior.DateField
}

// Plan is a fully resolved batch edit: the value to assign and every
// (uuid, field) pair it applies to, in deterministic order.
type Plan struct {
	Key   string
	Value string
	Pairs []Pair
}

// Failure records one pair whose external call failed.
type Failure struct {
	Pair Pair
	Err  error
}

// Dispatcher resolves digit keys into batch plans and runs them against the
// external mutator.
type Dispatcher struct {
	hotkeys   map[string]string
	fields    *FieldSet
	selection *Selection
	modifier  Modifier

	// CallTimeout bounds each external call when positive.
	CallTimeout time.Duration
}

func NewDispatcher(hotkeys map[string]string, fields *FieldSet, selection *Selection, modifier Modifier) *Dispatcher {
	return &Dispatcher{
		hotkeys:   hotkeys,
		fields:    fields,
		selection: selection,
		modifier:  modifier,
	}
}

// HotkeyValue returns the configured date value for a digit key.
func (d *Dispatcher) HotkeyValue(key string) (string, bool) {
	v, ok := d.hotkeys[key]
	return v, ok
}

// Plan resolves a digit key into a batch plan without performing any edit.
//
// An unbound key or an empty active field set aborts the whole action: no
// pairs, and the caller must leave the selection untouched. Digit "0" always
// resolves to the unset sentinel regardless of the hotkey map.
func (d *Dispatcher) Plan(key, currentID string) (Plan, error) {
	value := ""
	if key != ClearKey {
		v, ok := d.hotkeys[key]
		if !ok {
			return Plan{}, ErrUnboundKey
		}
		value = v
	}

	fields := d.fields.Active()
	if len(fields) == 0 {
		return Plan{}, ErrNoActiveFields
	}

	ids := d.selection.Resolve(currentID)
	if len(ids) == 1 && ids[0] == "" {
		return Plan{}, ErrNoTargets
	}

	pairs := make([]Pair, 0, len(ids)*len(fields))
	for _, id := range ids {
		for _, f := range fields {
			pairs = append(pairs, Pair{UUID: id, Field: f})
		}
	}
	return Plan{Key: key, Value: value, Pairs: pairs}, nil
}

// Run executes every pair in the plan as an independent external call. A
// failed pair never stops the rest; all failures come back for the caller to
// surface one by one.
func (d *Dispatcher) Run(ctx context.Context, plan Plan) []Failure {
	var failures []Failure
	for _, p := range plan.Pairs {
		err := d.modifyOne(ctx, p, plan.Value)
		if err != nil {
			failures = append(failures, Failure{Pair: p, Err: err})
		}
	}
	return failures
}

func (d *Dispatcher) modifyOne(ctx context.Context, p Pair, value string) error {
	if d.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.CallTimeout)
		defer cancel()
	}
	return d.modifier.Modify(ctx, p.UUID, p.Field, value)
}
