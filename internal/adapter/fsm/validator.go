package fsm

import (
	"context"
	"errors"
	"fmt"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// quoteEvents is domain.Transitions in looplab/fsm form. Rows sharing an
// action and a destination become one event with several sources, so
// "accept" is a single event from both sent and pending_response.
var quoteEvents = func() []loopfsm.EventDesc {
	type edge struct {
		action domain.Action
		dst    domain.Status
	}
	var out []loopfsm.EventDesc
	index := make(map[edge]int)

	for _, t := range domain.Transitions {
		k := edge{action: t.Action, dst: t.Dst}
		if i, ok := index[k]; ok {
			out[i].Src = append(out[i].Src, string(t.Src))
			continue
		}
		index[k] = len(out)
		out = append(out, loopfsm.EventDesc{
			Name: string(t.Action),
			Src:  []string{string(t.Src)},
			Dst:  string(t.Dst),
		})
	}
	return out
}()

// Validator checks quote lifecycle moves against domain.Transitions.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply returns the status a quote in current reaches through action.
// A move missing from the lifecycle table yields *domain.TransitionError.
func (v *Validator) Apply(ctx context.Context, current domain.Status, action domain.Action) (domain.Status, error) {
	// looplab/fsm machines are stateful; one per call keeps Apply pure.
	quote := loopfsm.NewFSM(string(current), quoteEvents, nil)

	if err := quote.Event(ctx, string(action)); err != nil {
		return "", rejected(err, current, action)
	}
	return domain.Status(quote.Current()), nil
}

// rejected maps looplab/fsm refusals to *domain.TransitionError. Anything
// else, a cancelled context for instance, is returned wrapped.
func rejected(err error, current domain.Status, action domain.Action) error {
	var (
		invalid      loopfsm.InvalidEventError
		unknown      loopfsm.UnknownEventError
		noTransition loopfsm.NoTransitionError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &unknown), errors.As(err, &noTransition):
		return &domain.TransitionError{Action: action, Current: current}
	default:
		return fmt.Errorf("applying %s to %s quote: %w", action, current, err)
	}
}
