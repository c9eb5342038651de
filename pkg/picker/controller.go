package picker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingen/pkg/adminerr"
)

// State of the dropdown.
type State int

const (
	Closed State = iota
	OpenLoading
	OpenIdle
)

func (s State) String() string {
	switch s {
	case OpenLoading:
		return "open(loading)"
	case OpenIdle:
		return "open(idle)"
	default:
		return "closed"
	}
}

// Open reports whether the dropdown is shown.
func (s State) Open() bool { return s != Closed }

// Mode selects the commit semantics.
type Mode int

const (
	// Single replaces the selection and closes the dropdown on commit.
	Single Mode = iota
	// Multiple toggles the committed candidate and stays open.
	Multiple
)

// Option is a candidate returned by a fetch.
type Option struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Fetcher loads the candidates matching query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]Option, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, query string) ([]Option, error)

func (fn FetchFunc) Fetch(ctx context.Context, query string) ([]Option, error) {
	return fn(ctx, query)
}

// DefaultDebounce is the delay between the last keystroke and the fetch.
const DefaultDebounce = 300 * time.Millisecond

// Config configures a Controller.
type Config struct {
	Mode    Mode
	Fetcher Fetcher
	// Param names the hidden inputs ("book_id", "book_ids[]").
	Param     string
	Debounce  time.Duration
	Scheduler Scheduler
	// Selected seeds the selection from the form.
	Selected    []Item
	Placeholder string
	// CountLabel renders the aggregate label when labels are not known.
	CountLabel func(n int) string
	// OnChange receives a snapshot after every state change. It may be
	// called from fetch goroutines.
	OnChange func(Snapshot)
	Logger   *zap.Logger
}

// Hidden is a hidden form input.
type Hidden struct {
	Name  string
	Value string
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	State   State
	Mode    Mode
	Query   string
	Options []Option
	// Cursor is the highlighted option, -1 when none.
	Cursor   int
	Selected []Item
	Hidden   []Hidden
	Label    string
	// Placeholder is set when Label is the placeholder text.
	Placeholder bool
	Focused     bool
	// Seq is the sequence number of the latest issued fetch.
	Seq uint64
	Err error
}

// Controller drives one picker. Its methods are safe for concurrent use.
type Controller struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	state     State
	query     string
	options   []Option
	cursor    int
	selected  selection
	focused   bool
	seq       uint64
	pending   Timer
	debounces uint64
	err       error
	closed    bool
}

// New returns a closed controller.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Fetcher == nil {
		return nil, adminerr.ConfigurationError{Subject: "picker", Msg: "missing fetcher"}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler{}
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = "Select items..."
	}
	if cfg.CountLabel == nil {
		cfg.CountLabel = func(n int) string { return fmt.Sprintf("%d selected", n) }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Controller{cfg: cfg, cursor: -1}
	c.ctx, c.cancel = context.WithCancel(ctx)
	for _, it := range cfg.Selected {
		if it.ID = strings.TrimSpace(it.ID); it.ID == "" {
			continue
		}
		if cfg.Mode == Single {
			c.selected.replace(it)
			continue
		}
		c.selected.add(it)
	}
	return c, nil
}

// Focus opens a closed dropdown and fetches with an empty query.
func (c *Controller) Focus() {
	c.update(func() {
		c.focused = true
		if !c.state.Open() {
			c.open()
		}
	})
}

// Toggle opens a closed dropdown like Focus, and closes an open one.
func (c *Controller) Toggle() {
	c.update(func() {
		if c.state.Open() {
			c.close()
			return
		}
		c.focused = true
		c.open()
	})
}

// Type records the query text and schedules a fetch after the debounce
// delay. Each keystroke restarts the delay.
func (c *Controller) Type(text string) {
	c.update(func() {
		if c.closed {
			return
		}
		c.focused = true
		c.query = text
		if !c.state.Open() {
			c.state = OpenIdle
		}
		c.stopPending()
		c.debounces++
		token := c.debounces
		c.wg.Add(1)
		c.pending = c.cfg.Scheduler.AfterFunc(c.cfg.Debounce, func() {
			defer c.wg.Done()
			c.update(func() {
				if token != c.debounces || c.closed || !c.state.Open() {
					return
				}
				c.pending = nil
				c.fetch()
			})
		})
	})
}

// Commit applies the candidate with id from the latest results.
func (c *Controller) Commit(id string) error {
	var err error
	c.update(func() {
		err = c.commit(id)
	})
	return err
}

// CommitHighlighted commits the option under the cursor.
func (c *Controller) CommitHighlighted() error {
	var err error
	c.update(func() {
		if !c.state.Open() || c.cursor < 0 || c.cursor >= len(c.options) {
			err = adminerr.NotFoundError{Resource: "option"}
			return
		}
		err = c.commit(c.options[c.cursor].ID)
	})
	return err
}

// MoveCursor moves the highlight by delta, wrapping around the options.
func (c *Controller) MoveCursor(delta int) {
	c.update(func() {
		n := len(c.options)
		if !c.state.Open() || n == 0 || delta == 0 {
			return
		}
		if c.cursor < 0 {
			if delta > 0 {
				c.cursor = 0
			} else {
				c.cursor = n - 1
			}
			return
		}
		c.cursor = ((c.cursor+delta)%n + n) % n
	})
}

// ClickOutside closes an open dropdown. The selection is kept.
func (c *Controller) ClickOutside() {
	c.update(func() {
		if c.state.Open() {
			c.close()
		}
	})
}

// Blur releases focus without closing the dropdown.
func (c *Controller) Blur() {
	c.update(func() { c.focused = false })
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Selected returns the selection in commit order.
func (c *Controller) Selected() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected.list()
}

// Close stops the pending debounce, cancels fetches still in flight, and
// waits for their goroutines to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopPending()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// update runs fn under the lock and reports the resulting snapshot.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshot()
	c.mu.Unlock()

	if c.cfg.OnChange != nil {
		c.cfg.OnChange(snap)
	}
}

func (c *Controller) open() {
	c.query = ""
	c.fetch()
}

func (c *Controller) close() {
	c.state = Closed
	c.cursor = -1
	c.stopPending()
}

// stopPending cancels the scheduled fetch. A timer that already fired
// releases the wait group itself.
func (c *Controller) stopPending() {
	if c.pending != nil {
		if c.pending.Stop() {
			c.wg.Done()
		}
		c.pending = nil
	}
}

// fetch issues a request tagged with the next sequence number.
func (c *Controller) fetch() {
	if c.closed {
		return
	}
	c.seq++
	seq, query := c.seq, c.query
	c.state = OpenLoading

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		options, err := c.cfg.Fetcher.Fetch(c.ctx, query)
		if err := c.deliver(seq, options, err); adminerr.IsStaleFetch(err) {
			c.cfg.Logger.Debug("stale picker response discarded",
				zap.Uint64("seq", seq),
				zap.String("query", query),
			)
		}
	}()
}

// deliver applies the response to fetch seq, unless a later fetch was
// issued since.
func (c *Controller) deliver(seq uint64, options []Option, fetchErr error) error {
	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		return adminerr.ErrStaleFetch
	}
	if fetchErr != nil {
		c.err = fetchErr
		c.options = nil
		c.close()
		c.cfg.Logger.Warn("picker fetch failed", zap.Uint64("seq", seq), zap.Error(fetchErr))
	} else {
		c.err = nil
		c.options = append([]Option(nil), options...)
		c.cursor = -1
		for _, o := range c.options {
			c.selected.learn(o.ID, o.Label)
		}
		if c.state.Open() {
			c.state = OpenIdle
		}
	}
	snap := c.snapshot()
	c.mu.Unlock()

	if c.cfg.OnChange != nil {
		c.cfg.OnChange(snap)
	}
	return nil
}

func (c *Controller) commit(id string) error {
	var opt *Option
	for i := range c.options {
		if c.options[i].ID == id {
			opt = &c.options[i]
			break
		}
	}
	if opt == nil {
		return adminerr.NotFoundError{Resource: "option", Name: id}
	}

	item := Item{ID: opt.ID, Label: opt.Label}
	if c.cfg.Mode == Single {
		c.selected.replace(item)
		c.query = ""
		c.close()
		c.focused = false
		return nil
	}
	if c.selected.has(id) {
		c.selected.remove(id)
	} else {
		c.selected.add(item)
	}
	return nil
}

func (c *Controller) snapshot() Snapshot {
	options := make([]Option, len(c.options))
	for i, o := range c.options {
		o.Selected = c.selected.has(o.ID)
		options[i] = o
	}
	label, placeholder := c.label()
	return Snapshot{
		State:       c.state,
		Mode:        c.cfg.Mode,
		Query:       c.query,
		Options:     options,
		Cursor:      c.cursor,
		Selected:    c.selected.list(),
		Hidden:      c.hidden(),
		Label:       label,
		Placeholder: placeholder,
		Focused:     c.focused,
		Seq:         c.seq,
		Err:         c.err,
	}
}

// label is the joined labels of the selection, the count when a label is
// unknown, or the placeholder.
func (c *Controller) label() (string, bool) {
	if c.selected.len() == 0 {
		return c.cfg.Placeholder, true
	}
	if !c.selected.labelsKnown() {
		if c.cfg.Mode == Single {
			return c.selected.items[0].ID, false
		}
		return c.cfg.CountLabel(c.selected.len()), false
	}
	labels := make([]string, 0, c.selected.len())
	for _, it := range c.selected.items {
		labels = append(labels, it.Label)
	}
	return strings.Join(labels, ", "), false
}

// hidden mirrors the selection as form inputs. Multiple pickers lead with
// a blank input so that an empty selection still submits the param.
func (c *Controller) hidden() []Hidden {
	if c.cfg.Mode == Single {
		value := ""
		if c.selected.len() > 0 {
			value = c.selected.items[0].ID
		}
		return []Hidden{{Name: c.cfg.Param, Value: value}}
	}
	out := make([]Hidden, 0, c.selected.len()+1)
	out = append(out, Hidden{Name: c.cfg.Param})
	for _, it := range c.selected.items {
		out = append(out, Hidden{Name: c.cfg.Param, Value: it.ID})
	}
	return out
}
