package model

import (
	"testing"

	"salesassist/api"
)

func sampleMessages() []api.Message {
	return []api.Message{
		{Role: api.RoleUser, Content: "top customers"},
		{Role: api.RoleAssistant, Content: "Here they are", FunctionResults: []api.Result{
			{Type: api.ResultTable, Columns: []string{"name"}, Rows: [][]any{{"Acme"}}, RowCount: 1},
			{Type: api.ResultDiagram, ChartType: api.ChartBar, Labels: []any{"Acme"}, Datasets: []api.Dataset{{Label: "x", Data: []float64{1}}}},
		}},
		{Role: api.RoleUser, Content: "thanks"},
		{Role: api.RoleError, Content: "Rate limit reached", IsCritical: false},
	}
}

func kinds(tr *Transcript) []EntryKind {
	var out []EntryKind
	for _, e := range tr.Entries() {
		out = append(out, e.Kind)
	}
	return out
}

func TestReplayIsOneToOne(t *testing.T) {
	tr := NewTranscript()
	tr.Replay(sampleMessages())

	want := []EntryKind{EntryUser, EntryAssistant, EntryUser, EntryError}
	got := kinds(tr)
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, e := range tr.Entries() {
		if e.Kind != want[i] {
			t.Errorf("entry %d: kind %v, want %v", i, e.Kind, want[i])
		}
		if e.Index != i {
			t.Errorf("entry %d: index %d", i, e.Index)
		}
	}
	if tr.Entries()[1].Results[0].Columns[0] != "name" {
		t.Error("results not carried over")
	}
}

func TestReplayBumpsEpoch(t *testing.T) {
	tr := NewTranscript()
	before := tr.Epoch()
	tr.Replay(nil)
	if tr.Epoch() == before {
		t.Error("replay should change the epoch")
	}
}

func TestIndexInference(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Transcript)
		want  int
	}{
		{"empty", func(*Transcript) {}, 0},
		{"after replay", func(tr *Transcript) { tr.Replay(sampleMessages()[:3]) }, 3},
		{"loading ignored", func(tr *Transcript) {
			tr.Replay(sampleMessages()[:2])
			tr.AppendLoading()
		}, 2},
		{"after local error", func(tr *Transcript) {
			tr.Replay(sampleMessages()[:1])
			tr.AppendError("boom", false)
		}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTranscript()
			tt.setup(tr)
			key := tr.AppendUser("next")
			e, _ := tr.Get(key)
			if e.Index != tt.want {
				t.Errorf("index = %d, want %d", e.Index, tt.want)
			}
		})
	}
}

func TestTruncateAfterKeepsTarget(t *testing.T) {
	tr := NewTranscript()
	tr.Replay(sampleMessages())
	target := tr.Entries()[0].Key

	if !tr.TruncateAfter(target) {
		t.Fatal("truncate failed")
	}
	if tr.Len() != 1 || tr.Entries()[0].Key != target {
		t.Fatalf("got %v", kinds(tr))
	}

	if tr.TruncateAfter(9999) {
		t.Error("truncating after a missing key should fail")
	}
}

func TestRemove(t *testing.T) {
	tr := NewTranscript()
	tr.AppendUser("hi")
	loading := tr.AppendLoading()

	if !tr.Remove(loading) {
		t.Fatal("remove failed")
	}
	if tr.Remove(loading) {
		t.Error("second remove should report false")
	}
	if tr.Len() != 1 {
		t.Errorf("len = %d", tr.Len())
	}
}

func TestKeysNotReusedAcrossReset(t *testing.T) {
	tr := NewTranscript()
	old := tr.AppendLoading()
	tr.Reset()
	fresh := tr.AppendLoading()
	if fresh == old {
		t.Fatal("key reused")
	}
	if tr.Remove(old) {
		t.Error("stale key must not match")
	}
}

func TestFindByIndex(t *testing.T) {
	tr := NewTranscript()
	tr.Replay(sampleMessages())
	e, ok := tr.FindByIndex(2)
	if !ok || e.Content != "thanks" {
		t.Errorf("got %+v, %v", e, ok)
	}
	if _, ok := tr.FindByIndex(1); ok {
		t.Error("index 1 is not a user message")
	}
}

func TestChartsWaitForMount(t *testing.T) {
	tr := NewTranscript()
	tr.Replay(sampleMessages())
	assistant := tr.Entries()[1].Key
	user := tr.Entries()[0].Key

	if _, ok := tr.Chart(assistant, 1); ok {
		t.Fatal("chart built before mount")
	}

	jobs := tr.Mounted([]int{user})
	if len(jobs) != 0 {
		t.Fatalf("jobs for an entry without charts: %v", jobs)
	}

	jobs = tr.Mounted([]int{user, assistant})
	if len(jobs) != 1 || jobs[0].EntryKey != assistant || jobs[0].Pos != 1 {
		t.Fatalf("jobs = %+v", jobs)
	}
	if jobs[0].Config.Type != api.ChartBar {
		t.Errorf("config type = %q", jobs[0].Config.Type)
	}

	if again := tr.Mounted([]int{assistant}); len(again) != 0 {
		t.Errorf("chart scheduled twice: %v", again)
	}

	if !tr.ChartBuilt(assistant, 1, "##") {
		t.Fatal("build rejected")
	}
	if got, ok := tr.Chart(assistant, 1); !ok || got != "##" {
		t.Errorf("chart = %q, %v", got, ok)
	}
}

func TestChartForRemovedEntryIsDropped(t *testing.T) {
	tr := NewTranscript()
	tr.Replay(sampleMessages())
	assistant := tr.Entries()[1].Key
	jobs := tr.Mounted([]int{assistant})
	if len(jobs) != 1 {
		t.Fatalf("jobs = %v", jobs)
	}

	tr.TruncateAfter(tr.Entries()[0].Key)

	if tr.ChartBuilt(assistant, 1, "##") {
		t.Error("chart accepted for a removed entry")
	}
}

func TestInvalidateCharts(t *testing.T) {
	tr := NewTranscript()
	tr.Replay(sampleMessages())
	assistant := tr.Entries()[1].Key
	tr.Mounted([]int{assistant})
	tr.ChartBuilt(assistant, 1, "##")

	tr.InvalidateCharts()

	if _, ok := tr.Chart(assistant, 1); ok {
		t.Error("chart should be pending again")
	}
	if jobs := tr.Mounted([]int{assistant}); len(jobs) != 1 {
		t.Errorf("jobs = %v", jobs)
	}
}

func TestToggleQueries(t *testing.T) {
	tr := NewTranscript()
	key := tr.AppendAssistant("x", nil)
	tr.ToggleQueries(key)
	e, _ := tr.Get(key)
	if !e.QueriesExpanded {
		t.Error("queries not expanded")
	}
}

func TestWelcome(t *testing.T) {
	store := NewStore()
	tr := NewTranscript()
	if !tr.Welcome(store) {
		t.Error("empty transcript without a conversation is the welcome view")
	}
	store.Set("1")
	if tr.Welcome(store) {
		t.Error("a selected conversation is not the welcome view")
	}
}
