// Package page implements the generic list page every entity window is built
// from: it loads rows into a tableview.Table, runs the add/edit form flow,
// removes rows after confirmation and switches between text and date
// filtering. User actions arrive as commands through Dispatch.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/notice"
	"github.com/onexcrm/onexcrm/internal/tableview"
)

// DefaultIndicatorDelay is how long the refresh indicator shows its outcome.
const DefaultIndicatorDelay = 2 * time.Second

// DateHeaders are the headers filtered with a date picker instead of text.
var DateHeaders = []string{"Contract Start", "Contract End", "Created At", "Updated At"}

// Repository is the persistence the page drives. *entity.Repository
// satisfies it.
type Repository interface {
	form.Store
	Load(ctx context.Context, columns []string, orderBy string) ([]entity.Record, error)
	SoftDelete(ctx context.Context, id int64) error
}

// UI is the window toolkit as seen by the page.
type UI interface {
	notice.Notifier
	// Confirm asks a yes/no question.
	Confirm(title, question string) bool
	// FillForm shows f until the user confirms (true) or cancels (false).
	FillForm(f form.EntityForm) bool
}

// Config wires one page.
type Config struct {
	Schema     entity.Schema
	NewForm    form.Factory
	Repository Repository
	UI         UI
	Logger     *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// IndicatorDelay defaults to DefaultIndicatorDelay.
	IndicatorDelay time.Duration
}

// State is the page lifecycle state.
type State string

const (
	StateLoading   State = "loading"
	StateIdle      State = "idle"
	StateAdding    State = "adding"
	StateEditing   State = "editing"
	StateRemoving  State = "removing"
	StateFiltering State = "filtering"
)

// Indicator is the refresh button label.
type Indicator string

const (
	IndicatorNeutral   Indicator = "🔄 Refresh"
	IndicatorRefreshed Indicator = "✅ Refreshed"
	IndicatorFailed    Indicator = "❌ Failed"
)

// ErrInvalidCommand is returned for commands the page cannot run.
var ErrInvalidCommand = errors.New("page: invalid command")

// Page is one entity list window. It is not safe for concurrent use.
type Page struct {
	schema   entity.Schema
	newForm  form.Factory
	repo     Repository
	ui       UI
	log      *slog.Logger
	clock    func() time.Time
	delay    time.Duration
	table    *tableview.Table
	handlers map[Action]handler
	run      *session

	state       State
	indicator   Indicator
	indicatedAt time.Time
	activated   int

	filterColumn int
	dateMode     bool
	filterText   string
	filterDate   time.Time
}

// New validates cfg and builds the page without loading it; call Dispatch
// with ActionRefresh for the initial load.
func New(cfg Config) (*Page, error) {
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}
	if cfg.NewForm == nil || cfg.Repository == nil || cfg.UI == nil {
		return nil, fmt.Errorf("page: %s: form, repository and ui are required", cfg.Schema.Table)
	}
	p := &Page{
		schema:       cfg.Schema,
		newForm:      cfg.NewForm,
		repo:         cfg.Repository,
		ui:           cfg.UI,
		log:          cfg.Logger,
		clock:        cfg.Clock,
		delay:        cfg.IndicatorDelay,
		table:        tableview.New(),
		state:        StateIdle,
		indicator:    IndicatorNeutral,
		activated:    -1,
		filterColumn: 1,
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	p.log = p.log.With(slog.String("page", cfg.Schema.Table))
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.delay <= 0 {
		p.delay = DefaultIndicatorDelay
	}
	p.table.ConfigureColumns(p.schema.Headers, p.schema.StretchColumn)
	p.table.WireRowInteraction(func(row int) { p.activated = row })
	p.handlers = dispatchTable()
	return p, nil
}

// Schema returns the page schema.
func (p *Page) Schema() entity.Schema { return p.schema }

// Table exposes the grid for rendering.
func (p *Page) Table() *tableview.Table { return p.table }

// State returns the current lifecycle state.
func (p *Page) State() State { return p.state }

// Indicator returns the refresh label, reverting to neutral once the delay
// since the last refresh has passed.
func (p *Page) Indicator() Indicator {
	if p.indicator != IndicatorNeutral && !p.clock().Before(p.indicatedAt.Add(p.delay)) {
		p.indicator = IndicatorNeutral
	}
	return p.indicator
}

// FilterChoices lists the headers the filter can apply to; the id is excluded.
func (p *Page) FilterChoices() []string {
	return slices.Clone(p.schema.Headers[1:])
}

// Filter describes the active filter.
type Filter struct {
	Column   string    `json:"column"`
	DateMode bool      `json:"date_mode"`
	Text     string    `json:"text,omitempty"`
	Date     time.Time `json:"date,omitzero"`
}

// ActiveFilter returns the current filter input.
func (p *Page) ActiveFilter() Filter {
	f := Filter{Column: p.schema.Headers[p.filterColumn], DateMode: p.dateMode}
	if p.dateMode {
		f.Date = p.filterDate
	} else {
		f.Text = p.filterText
	}
	return f
}

// IsDateHeader reports whether header is filtered by date.
func IsDateHeader(header string) bool {
	return slices.Contains(DateHeaders, header)
}

func (p *Page) label() string { return p.schema.DisplayName }

func (p *Page) setIndicator(ind Indicator) {
	p.indicator = ind
	p.indicatedAt = p.clock()
}

func (p *Page) applyFilter() {
	if p.dateMode {
		p.table.Filter(p.filterColumn, p.filterDate.Format(tableview.DateLayout))
		return
	}
	p.table.Filter(p.filterColumn, p.filterText)
}
