package settings

import (
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leadchat/leadchat-platform/internal/gateway"
	"github.com/leadchat/leadchat-platform/pkg/logging"
)

// fakeRemote scripts gateway behavior for store tests.
type fakeRemote struct {
	readDoc      map[string]json.RawMessage
	readURLs     []string
	writeOutcome gateway.Outcome
	writeURLs    []string
	written      []any
}

func (f *fakeRemote) ReadSettings(_ context.Context, url string) (map[string]json.RawMessage, error) {
	f.readURLs = append(f.readURLs, url)
	if f.readDoc == nil {
		return map[string]json.RawMessage{}, nil
	}
	return f.readDoc, nil
}

func (f *fakeRemote) WriteSettings(_ context.Context, settings any, url string) gateway.Outcome {
	f.writeURLs = append(f.writeURLs, url)
	f.written = append(f.written, settings)
	return f.writeOutcome
}

func newTestStore(remote Remote, snapshotPath string) *Store {
	return NewStore(StoreConfig{
		SnapshotPath: snapshotPath,
		Remote:       remote,
		Logger:       logging.New("error"),
	})
}

func TestLoad_MergesRemoteOverDefaults(t *testing.T) {
	remote := &fakeRemote{readDoc: map[string]json.RawMessage{
		"chatTitle": json.RawMessage(`"Remote Title"`),
	}}
	store := newTestStore(remote, "")

	got := store.Load(context.Background())

	if got.ChatTitle != "Remote Title" {
		t.Errorf("ChatTitle = %q", got.ChatTitle)
	}
	// Missing remote fields backfilled from defaults.
	if got.BotName != Defaults().BotName {
		t.Errorf("BotName = %q, want default", got.BotName)
	}
}

func TestLoad_FallsBackToSnapshotThenDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	// First store: update then implicitly snapshot.
	first := newTestStore(&fakeRemote{}, path)
	if _, _, err := first.Update(context.Background(), Partial{"chatTitle": json.RawMessage(`"Saved"`)}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Second store with empty remote: Load should pick up the snapshot.
	second := newTestStore(&fakeRemote{}, path)
	got := second.Load(context.Background())
	if got.ChatTitle != "Saved" {
		t.Errorf("ChatTitle = %q, want snapshot value", got.ChatTitle)
	}

	// No snapshot, no remote: defaults.
	third := newTestStore(&fakeRemote{}, "")
	got = third.Load(context.Background())
	if !reflect.DeepEqual(got, Defaults()) {
		t.Error("expected compiled-in defaults")
	}
}

func TestUpdate_PushesMergedRecordAndReturnsOutcome(t *testing.T) {
	remote := &fakeRemote{writeOutcome: gateway.Outcome{Status: "success"}}
	store := newTestStore(remote, "")

	merged, outcome, err := store.Update(context.Background(), Partial{
		"settingsWebhookUrl": json.RawMessage(`"https://hooks.example/settings"`),
		"chatTitle":          json.RawMessage(`"Panel"`),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if outcome.Status != "success" {
		t.Errorf("outcome = %+v", outcome)
	}
	if merged.ChatTitle != "Panel" {
		t.Errorf("ChatTitle = %q", merged.ChatTitle)
	}
	if len(remote.writeURLs) != 1 || remote.writeURLs[0] != "https://hooks.example/settings" {
		t.Errorf("writeURLs = %v", remote.writeURLs)
	}
	// Pushed document is the merged record, not the partial.
	pushed, ok := remote.written[0].(Settings)
	if !ok {
		t.Fatalf("pushed type %T", remote.written[0])
	}
	if pushed.ChatTitle != "Panel" || pushed.BotName != Defaults().BotName {
		t.Errorf("pushed record incomplete: %+v", pushed)
	}
}

func TestUpdate_WebhookFailureDoesNotFailUpdate(t *testing.T) {
	remote := &fakeRemote{writeOutcome: gateway.Outcome{Status: "failed", Error: "boom"}}
	store := newTestStore(remote, "")

	merged, outcome, err := store.Update(context.Background(), Partial{"chatTitle": json.RawMessage(`"Kept"`)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if outcome.Status != "failed" {
		t.Errorf("outcome = %+v", outcome)
	}
	if merged.ChatTitle != "Kept" {
		t.Error("update lost despite webhook failure")
	}
	if store.Current().ChatTitle != "Kept" {
		t.Error("store state lost despite webhook failure")
	}
}

func TestUpdate_InvalidPartialLeavesStateUntouched(t *testing.T) {
	store := newTestStore(&fakeRemote{}, "")
	before := store.Current()

	_, _, err := store.Update(context.Background(), Partial{"products": json.RawMessage(`123`)})
	if err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(store.Current(), before) {
		t.Error("failed update mutated state")
	}
}

func TestReset_YieldsDefaultsExactly(t *testing.T) {
	store := newTestStore(&fakeRemote{}, "")
	if _, _, err := store.Update(context.Background(), Partial{"chatTitle": json.RawMessage(`"Changed"`)}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := store.Reset(context.Background())

	wantJSON, _ := json.Marshal(Defaults())
	gotJSON, _ := json.Marshal(got)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("reset record differs from defaults:\n got %s\nwant %s", gotJSON, wantJSON)
	}
}

func TestVersion_IncrementsOnMutation(t *testing.T) {
	store := newTestStore(&fakeRemote{}, "")
	v0 := store.Version()

	store.Load(context.Background())
	if _, _, err := store.Update(context.Background(), Partial{"chatTitle": json.RawMessage(`"x"`)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	store.Reset(context.Background())

	if got := store.Version(); got != v0+3 {
		t.Errorf("version = %d, want %d", got, v0+3)
	}
}

func TestCurrent_ReturnsIsolatedCopy(t *testing.T) {
	store := newTestStore(&fakeRemote{}, "")

	got := store.Current()
	got.Questions[0].Label = "mutated"
	got.Products[0] = "mutated"

	if store.Current().Questions[0].Label == "mutated" {
		t.Error("Questions slice shared with caller")
	}
	if store.Current().Products[0] == "mutated" {
		t.Error("Products slice shared with caller")
	}
}
