package model

import (
	"salesassist/api"
	"salesassist/render"
)

type EntryKind int

const (
	EntryUser EntryKind = iota
	EntryAssistant
	EntryError
	EntryLoading
)

func (k EntryKind) String() string {
	switch k {
	case EntryUser:
		return "user"
	case EntryAssistant:
		return "assistant"
	case EntryError:
		return "error"
	case EntryLoading:
		return "loading"
	}
	return "unknown"
}

// Entry is one rendered message in the transcript.
type Entry struct {
	Key      int
	Kind     EntryKind
	Index    int // position in the server conversation, -1 if unknown
	Content  string
	Results  []api.Result
	Critical bool

	QueriesExpanded bool

	charts map[int]*chartSlot
}

// Editable reports whether the entry can start the edit-and-rerun flow.
func (e *Entry) Editable() bool {
	return e.Kind == EntryUser && e.Index >= 0
}

type chartState int

const (
	chartPending chartState = iota
	chartBuilding
	chartBuilt
)

type chartSlot struct {
	config   render.ChartConfig
	state    chartState
	rendered string
}

// ChartJob asks the view to build the chart for Results[Pos] of an entry
// that is currently on screen.
type ChartJob struct {
	EntryKey int
	Pos      int
	Config   render.ChartConfig
}

// Transcript is the ordered list of rendered messages for the active
// conversation. Keys are never reused, so a key held by an in-flight
// operation goes stale once its entry is removed.
type Transcript struct {
	entries []*Entry
	nextKey int
	epoch   int
}

func NewTranscript() *Transcript {
	return &Transcript{nextKey: 1}
}

func (t *Transcript) Entries() []*Entry { return t.entries }

func (t *Transcript) Len() int { return len(t.entries) }

// Epoch changes whenever the transcript is reset or replayed.
func (t *Transcript) Epoch() int { return t.epoch }

func (t *Transcript) Reset() {
	t.entries = nil
	t.epoch++
}

// Replay rebuilds the transcript from a server conversation, one entry per
// message, indexed by position. Unknown roles keep their index slot but
// render nothing.
func (t *Transcript) Replay(messages []api.Message) {
	t.Reset()
	for i, msg := range messages {
		t.appendMessage(msg, i)
	}
}

// AppendMessages appends server messages with index > after, skipping
// user turns. Used to show the regenerated suffix after a rerun.
func (t *Transcript) AppendMessages(messages []api.Message, after int) int {
	n := 0
	for i := after + 1; i < len(messages); i++ {
		msg := messages[i]
		if msg.Role != api.RoleAssistant && msg.Role != api.RoleError {
			continue
		}
		t.appendMessage(msg, i)
		n++
	}
	return n
}

func (t *Transcript) appendMessage(msg api.Message, index int) {
	switch msg.Role {
	case api.RoleUser:
		t.add(&Entry{Kind: EntryUser, Index: index, Content: msg.Content})
	case api.RoleAssistant:
		t.add(&Entry{Kind: EntryAssistant, Index: index, Content: msg.Content, Results: msg.FunctionResults})
	case api.RoleError:
		t.add(&Entry{Kind: EntryError, Index: index, Content: msg.Content, Critical: msg.IsCritical})
	}
}

// AppendUser adds an optimistic user entry.
func (t *Transcript) AppendUser(content string) int {
	return t.add(&Entry{Kind: EntryUser, Index: t.nextIndex(), Content: content})
}

// AppendAssistant adds an assistant reply that arrived from a live send.
func (t *Transcript) AppendAssistant(content string, results []api.Result) int {
	return t.add(&Entry{Kind: EntryAssistant, Index: t.nextIndex(), Content: content, Results: results})
}

// AppendError adds an inline error. Whether the backend stored it is not
// known, so it never carries an index.
func (t *Transcript) AppendError(message string, critical bool) int {
	return t.add(&Entry{Kind: EntryError, Index: -1, Content: message, Critical: critical})
}

func (t *Transcript) AppendLoading() int {
	return t.add(&Entry{Kind: EntryLoading, Index: -1})
}

func (t *Transcript) add(e *Entry) int {
	e.Key = t.nextKey
	t.nextKey++
	for i, r := range e.Results {
		if !r.IsDiagram() {
			continue
		}
		if e.charts == nil {
			e.charts = map[int]*chartSlot{}
		}
		e.charts[i] = &chartSlot{config: render.BuildChartConfig(r)}
	}
	t.entries = append(t.entries, e)
	return e.Key
}

// nextIndex infers the server index of the next message. It only succeeds
// while every message entry is indexed contiguously from zero.
func (t *Transcript) nextIndex() int {
	n := 0
	for _, e := range t.entries {
		if e.Kind == EntryLoading {
			continue
		}
		if e.Index != n {
			return -1
		}
		n++
	}
	return n
}

// Position returns the slice position of key, or -1.
func (t *Transcript) Position(key int) int {
	for i, e := range t.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

func (t *Transcript) Get(key int) (*Entry, bool) {
	if pos := t.Position(key); pos >= 0 {
		return t.entries[pos], true
	}
	return nil, false
}

// FindByIndex returns the user entry for server index i.
func (t *Transcript) FindByIndex(i int) (*Entry, bool) {
	for _, e := range t.entries {
		if e.Kind == EntryUser && e.Index == i {
			return e, true
		}
	}
	return nil, false
}

// Remove deletes the entry with key. It reports false if it was already gone.
func (t *Transcript) Remove(key int) bool {
	pos := t.Position(key)
	if pos < 0 {
		return false
	}
	t.entries = append(t.entries[:pos], t.entries[pos+1:]...)
	return true
}

// TruncateAfter drops every entry after key, keeping key itself.
func (t *Transcript) TruncateAfter(key int) bool {
	pos := t.Position(key)
	if pos < 0 {
		return false
	}
	for i := pos + 1; i < len(t.entries); i++ {
		t.entries[i] = nil
	}
	t.entries = t.entries[:pos+1]
	return true
}

func (t *Transcript) SetContent(key int, content string) bool {
	e, ok := t.Get(key)
	if !ok {
		return false
	}
	e.Content = content
	return true
}

func (t *Transcript) ToggleQueries(key int) bool {
	e, ok := t.Get(key)
	if !ok {
		return false
	}
	e.QueriesExpanded = !e.QueriesExpanded
	return true
}

// Mounted is the view's signal that the given entries are on screen. It
// returns a job for every pending chart among them and marks those charts
// as building.
func (t *Transcript) Mounted(visible []int) []ChartJob {
	var jobs []ChartJob
	for _, key := range visible {
		e, ok := t.Get(key)
		if !ok {
			continue
		}
		for pos := range e.Results {
			slot, ok := e.charts[pos]
			if !ok || slot.state != chartPending {
				continue
			}
			slot.state = chartBuilding
			jobs = append(jobs, ChartJob{EntryKey: key, Pos: pos, Config: slot.config})
		}
	}
	return jobs
}

// ChartBuilt stores a built chart. Charts for entries that have since left
// the transcript are dropped and it reports false.
func (t *Transcript) ChartBuilt(key, pos int, rendered string) bool {
	e, ok := t.Get(key)
	if !ok {
		return false
	}
	slot, ok := e.charts[pos]
	if !ok {
		return false
	}
	slot.state = chartBuilt
	slot.rendered = rendered
	return true
}

// Chart returns the built chart for Results[pos] of the entry.
func (t *Transcript) Chart(key, pos int) (string, bool) {
	e, ok := t.Get(key)
	if !ok {
		return "", false
	}
	slot, ok := e.charts[pos]
	if !ok || slot.state != chartBuilt {
		return "", false
	}
	return slot.rendered, true
}

// InvalidateCharts returns every chart to pending, e.g. after a resize.
func (t *Transcript) InvalidateCharts() {
	for _, e := range t.entries {
		for _, slot := range e.charts {
			slot.state = chartPending
			slot.rendered = ""
		}
	}
}

// Welcome reports whether the welcome view should be shown.
func (t *Transcript) Welcome(store *Store) bool {
	return !store.Has() && len(t.entries) == 0
}
