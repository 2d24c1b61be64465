package policy

import (
	"fmt"

	"github.com/cosmicpe/auctionhouse-backend/pkg/errors"
)

// Subject is anything whose permissions can gate a policy value.
type Subject interface {
	HasPermission(permission string) bool
}

// Entry pairs a permission with the value granted to subjects holding it.
// An empty permission string matches every subject and acts as the fallback.
type Entry[T any] struct {
	Permission string
	Value      T
}

// Evaluator resolves a policy value for a subject by walking its entries in
// order and returning the first match. Entries are checked most-specific
// first, so the fallback belongs last.
type Evaluator[T any] struct {
	name    string
	entries []Entry[T]
}

// NewEvaluator builds an evaluator over the given entries. The entry list
// must end with a fallback so every subject resolves.
func NewEvaluator[T any](name string, entries []Entry[T]) (*Evaluator[T], error) {
	if name == "" {
		return nil, fmt.Errorf("policy name is required")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("policy %s has no entries", name)
	}
	if entries[len(entries)-1].Permission != "" {
		return nil, fmt.Errorf("policy %s has no fallback entry", name)
	}
	return &Evaluator[T]{name: name, entries: entries}, nil
}

// MustEvaluator is NewEvaluator that panics on a bad entry list. Intended for
// wiring code where the entries are built from validated configuration.
func MustEvaluator[T any](name string, entries []Entry[T]) *Evaluator[T] {
	ev, err := NewEvaluator(name, entries)
	if err != nil {
		panic(err)
	}
	return ev
}

// Fallback builds a single-entry evaluator that grants value to everyone.
func Fallback[T any](name string, value T) *Evaluator[T] {
	return MustEvaluator(name, []Entry[T]{{Value: value}})
}

// Evaluate returns the value of the first entry whose permission the subject
// holds. A correctly built evaluator always resolves; the error path only
// fires when entries were mutated after construction.
func (e *Evaluator[T]) Evaluate(subject Subject) (T, error) {
	for _, entry := range e.entries {
		if entry.Permission == "" || subject.HasPermission(entry.Permission) {
			return entry.Value, nil
		}
	}
	var zero T
	return zero, errors.New(errors.CodeConfig, fmt.Sprintf("policy %s resolved no entry", e.name))
}

// Name identifies the evaluator in logs and errors.
func (e *Evaluator[T]) Name() string {
	return e.name
}
