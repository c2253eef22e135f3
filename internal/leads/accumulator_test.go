package leads

import (
	"testing"
	"time"
)

func TestAddAnswer_PreservesOrder(t *testing.T) {
	var d LeadData
	d.AddAnswer("name", "Dana")
	d.AddAnswer("phone", "0501234567")
	d.AddAnswer("", "button choice")

	if len(d.InitialAnswers) != 3 {
		t.Fatalf("len = %d, want 3", len(d.InitialAnswers))
	}
	if d.InitialAnswers[0].Key != "name" || d.InitialAnswers[0].Value != "Dana" {
		t.Errorf("first answer = %+v", d.InitialAnswers[0])
	}
	if d.InitialAnswers[2].Key != "" {
		t.Errorf("keyless answer got key %q", d.InitialAnswers[2].Key)
	}
}

func TestAddTurn_DefaultsTimestamp(t *testing.T) {
	var d LeadData
	d.AddTurn("how much?", "it depends", time.Time{})

	if len(d.Questions) != 1 {
		t.Fatalf("len = %d, want 1", len(d.Questions))
	}
	if d.Questions[0].Timestamp.IsZero() {
		t.Error("timestamp not defaulted")
	}
}

func TestReset_ClearsBothFeeds(t *testing.T) {
	var d LeadData
	d.AddAnswer("name", "Dana")
	d.AddTurn("q", "a", time.Now())

	d.Reset()

	if len(d.InitialAnswers) != 0 || len(d.Questions) != 0 {
		t.Errorf("after reset: %d answers, %d turns", len(d.InitialAnswers), len(d.Questions))
	}
}

func TestSnapshot_IsIndependent(t *testing.T) {
	var d LeadData
	d.AddAnswer("name", "Dana")

	snap := d.Snapshot()
	snap.InitialAnswers[0].Value = "mutated"

	if d.InitialAnswers[0].Value != "Dana" {
		t.Error("snapshot mutation leaked into accumulator")
	}
}
