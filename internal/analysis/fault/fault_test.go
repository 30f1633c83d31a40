package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := DataUnavailable("no options data for %s", "SPY")
	if KindOf(err) != KindDataUnavailable {
		t.Errorf("expected data_unavailable, got %s", KindOf(err))
	}
	if !IsKind(err, KindDataUnavailable) {
		t.Error("IsKind should match")
	}
	if IsKind(err, KindInsufficientHistory) {
		t.Error("IsKind should not match a different kind")
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := Wrap(KindCalculation, errors.New("boom"), "flow score")
	wrapped := fmt.Errorf("sector XLE: %w", inner)

	if KindOf(wrapped) != KindCalculation {
		t.Errorf("expected calculation through wrapping, got %s", KindOf(wrapped))
	}
	if !errors.Is(errors.Unwrap(wrapped), inner) {
		t.Error("expected wrapped fault to unwrap")
	}
}

func TestKindOfNonFault(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for non-fault error")
	}
}
