package fsm

import (
	"context"
	"errors"
	"testing"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/quoteflow/internal/domain"
)

func TestRejected_MapsRefusals(t *testing.T) {
	refusals := []error{
		loopfsm.InvalidEventError{Event: "accept", State: "draft"},
		loopfsm.UnknownEventError{Event: "update_details"},
		loopfsm.NoTransitionError{},
	}
	for _, refusal := range refusals {
		err := rejected(refusal, domain.StatusDraft, domain.ActionAccept)

		var trErr *domain.TransitionError
		if !errors.As(err, &trErr) {
			t.Fatalf("rejected(%T) = %v, want TransitionError", refusal, err)
		}
		if trErr.Current != domain.StatusDraft || trErr.Action != domain.ActionAccept {
			t.Errorf("TransitionError = %+v", trErr)
		}
	}
}

func TestRejected_WrapsOtherErrors(t *testing.T) {
	err := rejected(context.Canceled, domain.StatusSent, domain.ActionExpire)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("rejected() = %v, want wrapped context.Canceled", err)
	}
	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		t.Error("a cancelled context must not look like a refused transition")
	}
}

func TestQuoteEvents_FoldSharedDestinations(t *testing.T) {
	sources := make(map[string]int)
	for _, e := range quoteEvents {
		sources[e.Name] += len(e.Src)
	}
	for _, action := range []string{"accept", "reject", "counter", "expire"} {
		if sources[action] != 2 {
			t.Errorf("%s has %d sources, want 2", action, sources[action])
		}
	}
	if len(quoteEvents) != 6 {
		t.Errorf("len(quoteEvents) = %d, want 6", len(quoteEvents))
	}
}
