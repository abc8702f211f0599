// Package listing binds one entity's remote, filterable, sortable, paginated
// collection to a bubbletea-friendly state machine.
//
// A Controller is a value: every action returns the updated Controller and,
// when the query changed, the command that fetches the new page. Results come
// back as LoadedMsg and are accepted only if they answer the most recently
// issued fetch of the same controller instance.
package listing

import (
	"context"
	"errors"
	"maps"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smarteletron/eletron/pkg/client"
	"github.com/smarteletron/eletron/pkg/domain"
)

// DefaultPageSize is used when Config.PageSize is zero.
const DefaultPageSize = 10

var (
	// ErrBusy is returned when a mutation is requested while another is in flight.
	ErrBusy = errors.New("listing: a change is already being saved")
	// ErrUnsupported is returned for mutations the entity does not offer.
	ErrUnsupported = errors.New("listing: operation not supported")
	// ErrClosed is returned for mutations on a closed controller.
	ErrClosed = errors.New("listing: controller closed")
)

// Status is the controller's activity state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusSubmitting
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSubmitting:
		return "submitting"
	}
	return "idle"
}

// ModalMode says which editing session, if any, is open.
type ModalMode int

const (
	ModalClosed ModalMode = iota
	ModalCreate
	ModalEdit
)

// Op names a mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// SearchFunc fetches one page.
type SearchFunc[T any] func(ctx context.Context, req domain.PageRequest) (domain.Page[T], error)

// Config wires a Controller to an entity's endpoints. Nil mutation funcs
// make the corresponding operation unsupported.
type Config[T any] struct {
	Search SearchFunc[T]
	Create func(ctx context.Context, item T) error
	Update func(ctx context.Context, id string, item T) error
	Delete func(ctx context.Context, id string) error

	PageSize      int
	SortField     string
	SortDirection domain.SortDirection
	Logger        *zerolog.Logger
}

// LoadedMsg carries a fetch result back to the controller that issued it.
type LoadedMsg[T any] struct {
	ControllerID uuid.UUID
	Seq          uint64
	Page         domain.Page[T]
	Err          error
}

// MutatedMsg carries a mutation result back to the controller that issued it.
type MutatedMsg struct {
	ControllerID uuid.UUID
	Op           Op
	Err          error
}

// Controller holds the list query state of one page visit.
type Controller[T any] struct {
	id  uuid.UUID
	cfg Config[T]
	log zerolog.Logger

	query   domain.PageRequest // Filters are the applied filters
	pending map[string]string
	result  domain.Page[T]
	status  Status
	errMsg  string

	modal   ModalMode
	editing T

	seq          uint64
	cancelFetch  context.CancelFunc
	cancelMutate context.CancelFunc
	reload       bool // a fetch was preempted by a mutation
	closed       bool
}

// New creates a controller. Call Init (or Load) to issue the first fetch.
func New[T any](cfg Config[T]) Controller[T] {
	size := cfg.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	dir := cfg.SortDirection
	if dir == "" {
		dir = domain.SortAsc
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	id := uuid.New()
	return Controller[T]{
		id:  id,
		cfg: cfg,
		log: log.With().Str("controller", id.String()).Logger(),
		query: domain.PageRequest{
			Size:    size,
			SortBy:  cfg.SortField,
			SortDir: dir,
			Filters: map[string]string{},
		},
		pending: map[string]string{},
	}
}

// Init issues the on-mount fetch.
func (c Controller[T]) Init() (Controller[T], tea.Cmd) {
	return c.Load()
}

// Load fetches the page described by the current query. Any fetch still in
// flight is canceled and its result will be ignored.
func (c Controller[T]) Load() (Controller[T], tea.Cmd) {
	if c.closed || c.cfg.Search == nil {
		return c, nil
	}
	if c.status == StatusSubmitting {
		c.reload = true
		return c, nil
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFetch = cancel
	c.seq++
	c.status = StatusLoading

	id, seq, req, search := c.id, c.seq, c.query.Clone(), c.cfg.Search
	c.log.Debug().Uint64("seq", seq).Int("page", req.Page).Str("sort", req.SortBy).Msg("fetch")
	return c, func() tea.Msg {
		page, err := search(ctx, req)
		return LoadedMsg[T]{ControllerID: id, Seq: seq, Page: page, Err: err}
	}
}

// SetPendingFilters merges partial into the pending filters without fetching.
func (c Controller[T]) SetPendingFilters(partial map[string]string) Controller[T] {
	next := maps.Clone(c.pending)
	if next == nil {
		next = map[string]string{}
	}
	maps.Copy(next, partial)
	c.pending = next
	return c
}

// ApplyFilters makes the pending filters the applied ones and restarts from the first page.
func (c Controller[T]) ApplyFilters() (Controller[T], tea.Cmd) {
	c.query.Filters = maps.Clone(c.pending)
	c.query.Page = 0
	return c.Load()
}

// ClearFilters empties pending and applied filters and restarts from the first page.
func (c Controller[T]) ClearFilters() (Controller[T], tea.Cmd) {
	c.pending = map[string]string{}
	c.query.Filters = map[string]string{}
	c.query.Page = 0
	return c.Load()
}

// ChangePage moves to page n. Callers keep n within [0, TotalPages-1].
func (c Controller[T]) ChangePage(n int) (Controller[T], tea.Cmd) {
	if n < 0 || n == c.query.Page {
		return c, nil
	}
	c.query.Page = n
	return c.Load()
}

// NextPage advances one page if there is one.
func (c Controller[T]) NextPage() (Controller[T], tea.Cmd) {
	if !c.HasNext() {
		return c, nil
	}
	return c.ChangePage(c.query.Page + 1)
}

// PrevPage goes back one page if there is one.
func (c Controller[T]) PrevPage() (Controller[T], tea.Cmd) {
	if !c.HasPrev() {
		return c, nil
	}
	return c.ChangePage(c.query.Page - 1)
}

// SetPageSize changes the page size and restarts from the first page.
func (c Controller[T]) SetPageSize(n int) (Controller[T], tea.Cmd) {
	if n <= 0 || n == c.query.Size {
		return c, nil
	}
	c.query.Size = n
	c.query.Page = 0
	return c.Load()
}

// SortBy flips the direction when field is already the sort field, otherwise
// sorts ascending by field. Either way it restarts from the first page.
func (c Controller[T]) SortBy(field string) (Controller[T], tea.Cmd) {
	if field == c.query.SortBy {
		c.query.SortDir = c.query.SortDir.Toggle()
	} else {
		c.query.SortBy = field
		c.query.SortDir = domain.SortAsc
	}
	c.query.Page = 0
	return c.Load()
}

// Create submits a new entity. On success the modal closes and the page reloads.
func (c Controller[T]) Create(item T) (Controller[T], tea.Cmd, error) {
	if c.cfg.Create == nil {
		return c, nil, ErrUnsupported
	}
	create := c.cfg.Create
	return c.mutate(OpCreate, func(ctx context.Context) error { return create(ctx, item) })
}

// Update submits changes to the entity identified by id.
func (c Controller[T]) Update(id string, item T) (Controller[T], tea.Cmd, error) {
	if c.cfg.Update == nil {
		return c, nil, ErrUnsupported
	}
	update := c.cfg.Update
	return c.mutate(OpUpdate, func(ctx context.Context) error { return update(ctx, id, item) })
}

// Delete removes the entity identified by id.
func (c Controller[T]) Delete(id string) (Controller[T], tea.Cmd, error) {
	if c.cfg.Delete == nil {
		return c, nil, ErrUnsupported
	}
	del := c.cfg.Delete
	return c.mutate(OpDelete, func(ctx context.Context) error { return del(ctx, id) })
}

// mutate runs fn as the only backend activity of the controller. A fetch in
// flight is canceled and rerun once the mutation settles.
func (c Controller[T]) mutate(op Op, fn func(ctx context.Context) error) (Controller[T], tea.Cmd, error) {
	if c.closed {
		return c, nil, ErrClosed
	}
	if c.status == StatusSubmitting {
		return c, nil, ErrBusy
	}
	if c.status == StatusLoading {
		if c.cancelFetch != nil {
			c.cancelFetch()
			c.cancelFetch = nil
		}
		c.seq++ // orphan the preempted result
		c.reload = true
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelMutate = cancel
	c.status = StatusSubmitting
	c.errMsg = ""

	id := c.id
	c.log.Debug().Str("op", string(op)).Msg("mutate")
	return c, func() tea.Msg {
		return MutatedMsg{ControllerID: id, Op: op, Err: fn(ctx)}
	}, nil
}

// OpenCreateModal starts a create session.
func (c Controller[T]) OpenCreateModal() Controller[T] {
	var zero T
	c.modal = ModalCreate
	c.editing = zero
	return c
}

// OpenEditModal starts an edit session for item.
func (c Controller[T]) OpenEditModal(item T) Controller[T] {
	c.modal = ModalEdit
	c.editing = item
	return c
}

// CloseModal ends the editing session.
func (c Controller[T]) CloseModal() Controller[T] {
	var zero T
	c.modal = ModalClosed
	c.editing = zero
	return c
}

// Close unmounts the controller: in-flight work is canceled and later results are dropped.
func (c Controller[T]) Close() Controller[T] {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	if c.cancelMutate != nil {
		c.cancelMutate()
		c.cancelMutate = nil
	}
	c.closed = true
	return c
}

// Handle applies a LoadedMsg or MutatedMsg addressed to this controller.
// Anything else is ignored.
func (c Controller[T]) Handle(msg tea.Msg) (Controller[T], tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg[T]:
		if c.closed || msg.ControllerID != c.id || msg.Seq != c.seq {
			return c, nil
		}
		if c.cancelFetch != nil {
			c.cancelFetch()
			c.cancelFetch = nil
		}
		if msg.Err != nil {
			c.status = StatusError
			c.errMsg = client.Describe(msg.Err)
			c.log.Warn().Err(msg.Err).Uint64("seq", msg.Seq).Msg("fetch failed")
			return c, nil
		}
		c.result = msg.Page
		c.status = StatusIdle
		c.errMsg = ""
		return c, nil

	case MutatedMsg:
		if c.closed || msg.ControllerID != c.id || c.status != StatusSubmitting {
			return c, nil
		}
		c.cancelMutate = nil
		reload := c.reload
		c.reload = false
		if msg.Err != nil {
			c.status = StatusError
			c.errMsg = client.Describe(msg.Err)
			c.log.Warn().Err(msg.Err).Str("op", string(msg.Op)).Msg("mutation failed")
			if reload {
				return c.Load()
			}
			return c, nil
		}
		c.log.Info().Str("op", string(msg.Op)).Msg("mutation saved")
		c.status = StatusIdle
		c = c.CloseModal()
		return c.Load()
	}
	return c, nil
}

// ID identifies this controller instance in messages.
func (c Controller[T]) ID() uuid.UUID { return c.id }

// Query returns the applied query.
func (c Controller[T]) Query() domain.PageRequest { return c.query.Clone() }

// AppliedFilters returns the filters last sent to the backend.
func (c Controller[T]) AppliedFilters() map[string]string { return maps.Clone(c.query.Filters) }

// PendingFilters returns the edited, not yet applied, filters.
func (c Controller[T]) PendingFilters() map[string]string { return maps.Clone(c.pending) }

// Result returns the last fetched page.
func (c Controller[T]) Result() domain.Page[T] { return c.result }

// Items returns the rows of the last fetched page.
func (c Controller[T]) Items() []T { return c.result.Items }

// Status returns the activity state.
func (c Controller[T]) Status() Status { return c.status }

// Err returns the message of the last failure, or "".
func (c Controller[T]) Err() string { return c.errMsg }

// Modal returns the open editing session and the entity being edited.
func (c Controller[T]) Modal() (ModalMode, T) { return c.modal, c.editing }

// Closed reports whether Close was called.
func (c Controller[T]) Closed() bool { return c.closed }

// Page returns the zero-based current page.
func (c Controller[T]) Page() int { return c.query.Page }

// HasNext reports whether a page after the current one exists.
func (c Controller[T]) HasNext() bool { return c.query.Page+1 < c.result.TotalPages }

// HasPrev reports whether a page before the current one exists.
func (c Controller[T]) HasPrev() bool { return c.query.Page > 0 }

// Busy reports whether a fetch or mutation is in flight.
func (c Controller[T]) Busy() bool {
	return c.status == StatusLoading || c.status == StatusSubmitting
}
