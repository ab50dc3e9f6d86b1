package view

import "sync"

// Class is a style hint attached to a field, a row or a cell.
type Class string

const (
	ClassNone  Class = ""
	ClassBest  Class = "best"
	ClassError Class = "error"
	ClassSlow  Class = "slow"
)

// Columns is the number of columns of the results table.
const Columns = 3

// Field is a single line of summary text.
type Field struct {
	Text  string
	Class Class
}

// Cell is one table cell. ColSpan of zero or one spans a single column.
type Cell struct {
	Text     string
	Class    Class
	ColSpan  int
	Centered bool
}

// Row is one table row.
type Row struct {
	Cells []Cell
	Class Class
}

// Page is a point-in-time copy of the dashboard used by renderers.
type Page struct {
	Messages   Messages
	UpdateTime Field
	BestProxy  Field
	Rows       []Row
}

// Dashboard is the mutable dashboard state.
type Dashboard struct {
	mutex      sync.RWMutex
	messages   Messages
	updateTime Field
	bestProxy  Field
	rows       []Row
	changed    chan struct{}
}

// NewDashboard returns a dashboard whose summary fields show the loading
// placeholder and whose table is empty.
func NewDashboard(messages Messages) *Dashboard {
	return &Dashboard{
		messages:   messages,
		updateTime: Field{Text: messages.Loading},
		bestProxy:  Field{Text: messages.Loading},
		changed:    make(chan struct{}, 1),
	}
}

// Messages returns the localized strings of the dashboard.
func (d *Dashboard) Messages() Messages {
	return d.messages
}

// SetUpdateTime sets the "last update" text.
func (d *Dashboard) SetUpdateTime(text string) {
	d.mutex.Lock()
	d.updateTime = Field{Text: text}
	d.mutex.Unlock()

	d.notify()
}

// SetBestProxy sets the "best proxy" text and style.
func (d *Dashboard) SetBestProxy(text string, class Class) {
	d.mutex.Lock()
	d.bestProxy = Field{Text: text, Class: class}
	d.mutex.Unlock()

	d.notify()
}

// SetBestProxyText sets the "best proxy" text and keeps its current style.
func (d *Dashboard) SetBestProxyText(text string) {
	d.mutex.Lock()
	d.bestProxy.Text = text
	d.mutex.Unlock()

	d.notify()
}

// ReplaceRows clears the table and fills it with rows.
func (d *Dashboard) ReplaceRows(rows []Row) {
	copied := copyRows(rows)

	d.mutex.Lock()
	d.rows = copied
	d.mutex.Unlock()

	d.notify()
}

// Page returns a copy of the current state.
func (d *Dashboard) Page() Page {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return Page{
		Messages:   d.messages,
		UpdateTime: d.updateTime,
		BestProxy:  d.bestProxy,
		Rows:       copyRows(d.rows),
	}
}

// Changed is signalled after mutations. Bursts of mutations may be
// coalesced into a single signal.
func (d *Dashboard) Changed() <-chan struct{} {
	return d.changed
}

func (d *Dashboard) notify() {
	select {
	case d.changed <- struct{}{}:
	default:
	}
}

func copyRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Class: r.Class, Cells: append([]Cell(nil), r.Cells...)}
	}
	return out
}
