package tui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/smarteletron/eletron/internal/listing"
	"github.com/smarteletron/eletron/pkg/client"
	"github.com/smarteletron/eletron/pkg/domain"
)

// column renders one field of T in the table. A column with a sort field can
// be selected with < and > and sorted with s.
type column[T any] struct {
	title string
	sort  string
	width int
	value func(T) string
}

type filterField struct {
	key   string
	label string
}

// formField maps one form input onto T. set may reject the value.
type formField[T any] struct {
	key     string
	label   string
	secret  bool
	options []string
	get     func(T) string
	set     func(*T, string) error
}

// listSpec describes one administrable entity.
type listSpec[T any] struct {
	title   string
	columns []column[T]
	filters []filterField
	fields  []formField[T]
	idOf    func(T) string
	config  listing.Config[T]

	// suggest loads the choices shown under a form field, keyed by field key.
	suggest map[string]func(ctx context.Context) ([]string, error)
}

type listMode int

const (
	listBrowse listMode = iota
	listFilter
	listForm
	listConfirmDelete
)

type copyResultMsg struct {
	owner uuid.UUID
	id    string
	err   error
}

type suggestionsLoadedMsg struct {
	owner  uuid.UUID
	key    string
	values []string
	err    error
}

// listPage is the screen of one entity: a table over a listing.Controller
// plus the filter editor and the create/edit form.
type listPage[T any] struct {
	spec        listSpec[T]
	ctl         listing.Controller[T]
	cursor      int
	sortCol     int
	mode        listMode
	filterFocus int
	form        formModel
	suggestions map[string]string
	statusMsg   string
	width       int
	height      int
}

func newListPage[T any](spec listSpec[T]) listPage[T] {
	p := listPage[T]{
		spec:        spec,
		ctl:         listing.New(spec.config),
		suggestions: map[string]string{},
	}
	for i, col := range spec.columns {
		if col.sort != "" && col.sort == spec.config.SortField {
			p.sortCol = i
		}
	}
	return p
}

// mount issues the first fetch and loads form suggestions.
func (p listPage[T]) mount() (page, tea.Cmd) {
	var cmd tea.Cmd
	p.ctl, cmd = p.ctl.Init()
	cmds := []tea.Cmd{cmd}
	for key, load := range p.spec.suggest {
		owner, key, load := p.ctl.ID(), key, load
		cmds = append(cmds, func() tea.Msg {
			values, err := load(context.Background())
			return suggestionsLoadedMsg{owner: owner, key: key, values: values, err: err}
		})
	}
	return p, tea.Batch(cmds...)
}

func (p listPage[T]) Close() page {
	p.ctl = p.ctl.Close()
	return p
}

func (p listPage[T]) resize(width, height int) page {
	p.width = width
	p.height = height
	return p
}

func (p listPage[T]) editing() bool {
	return p.mode == listFilter || p.mode == listForm
}

func (p listPage[T]) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case listing.LoadedMsg[T]:
		p.ctl, _ = p.ctl.Handle(msg)
		if n := len(p.ctl.Items()); p.cursor >= n {
			p.cursor = max(n-1, 0)
		}
		return p, nil

	case listing.MutatedMsg:
		if msg.ControllerID != p.ctl.ID() {
			return p, nil
		}
		var cmd tea.Cmd
		p.ctl, cmd = p.ctl.Handle(msg)
		p.form.submitting = false
		if msg.Err != nil {
			if p.mode == listForm {
				p.form.err = client.Describe(msg.Err)
			} else {
				p.statusMsg = string(msg.Op) + " failed: " + client.Describe(msg.Err)
			}
			return p, cmd
		}
		p.mode = listBrowse
		switch msg.Op {
		case listing.OpCreate:
			p.statusMsg = "created"
		case listing.OpUpdate:
			p.statusMsg = "saved"
		case listing.OpDelete:
			p.statusMsg = "deleted"
		}
		return p, cmd

	case suggestionsLoadedMsg:
		if msg.owner != p.ctl.ID() || msg.err != nil {
			return p, nil
		}
		p.suggestions[msg.key] = "available: " + truncStr(strings.Join(msg.values, ", "), 200)
		if p.mode == listForm {
			p.form = p.form.setHint(msg.key, p.suggestions[msg.key])
		}
		return p, nil

	case copyResultMsg:
		if msg.owner != p.ctl.ID() {
			return p, nil
		}
		if msg.err != nil {
			p.statusMsg = "copy failed"
		} else {
			p.statusMsg = "copied " + msg.id
		}
		return p, nil

	case tea.KeyMsg:
		switch p.mode {
		case listFilter:
			return p.updateFilter(msg)
		case listForm:
			return p.updateForm(msg)
		case listConfirmDelete:
			return p.updateConfirm(msg)
		}
		return p.updateBrowse(msg)
	}
	return p, nil
}

func (p listPage[T]) selected() (T, bool) {
	items := p.ctl.Items()
	if p.cursor < 0 || p.cursor >= len(items) {
		var zero T
		return zero, false
	}
	return items[p.cursor], true
}

func (p listPage[T]) updateBrowse(msg tea.KeyMsg) (page, tea.Cmd) {
	p.statusMsg = ""
	var cmd tea.Cmd
	switch msg.String() {
	case "j", "down":
		if p.cursor < len(p.ctl.Items())-1 {
			p.cursor++
		}
	case "k", "up":
		if p.cursor > 0 {
			p.cursor--
		}
	case "]":
		p.ctl, cmd = p.ctl.NextPage()
		if cmd != nil {
			p.cursor = 0
		}
	case "[":
		p.ctl, cmd = p.ctl.PrevPage()
		if cmd != nil {
			p.cursor = 0
		}
	case ">":
		p.sortCol = p.nextSortable(1)
	case "<":
		p.sortCol = p.nextSortable(-1)
	case "s":
		if p.sortCol < len(p.spec.columns) && p.spec.columns[p.sortCol].sort != "" {
			p.ctl, cmd = p.ctl.SortBy(p.spec.columns[p.sortCol].sort)
			p.cursor = 0
		}
	case "/":
		if len(p.spec.filters) > 0 {
			p.mode = listFilter
			p.filterFocus = 0
		}
	case "x":
		p.ctl, cmd = p.ctl.ClearFilters()
		p.cursor = 0
	case "r":
		p.ctl, cmd = p.ctl.Load()
	case "a":
		if p.spec.config.Create == nil {
			p.statusMsg = "read-only"
			return p, nil
		}
		var zero T
		p.ctl = p.ctl.OpenCreateModal()
		p.form = p.buildForm("New "+p.spec.title, zero)
		p.mode = listForm
	case "e", "enter":
		item, ok := p.selected()
		if !ok {
			return p, nil
		}
		if p.spec.config.Update == nil {
			p.statusMsg = "read-only"
			return p, nil
		}
		p.ctl = p.ctl.OpenEditModal(item)
		p.form = p.buildForm("Edit "+p.spec.title+" "+p.spec.idOf(item), item)
		p.mode = listForm
	case "d":
		if _, ok := p.selected(); !ok {
			return p, nil
		}
		if p.spec.config.Delete == nil {
			p.statusMsg = "cannot be deleted"
			return p, nil
		}
		p.mode = listConfirmDelete
	case "c":
		item, ok := p.selected()
		if !ok {
			return p, nil
		}
		id, owner := p.spec.idOf(item), p.ctl.ID()
		return p, func() tea.Msg {
			return copyResultMsg{owner: owner, id: id, err: clipboard.WriteAll(id)}
		}
	}
	return p, cmd
}

// nextSortable moves the sort column selection to the next sortable column in dir.
func (p listPage[T]) nextSortable(dir int) int {
	n := len(p.spec.columns)
	for step := 1; step <= n; step++ {
		i := ((p.sortCol+dir*step)%n + n) % n
		if p.spec.columns[i].sort != "" {
			return i
		}
	}
	return p.sortCol
}

func (p listPage[T]) updateFilter(msg tea.KeyMsg) (page, tea.Cmd) {
	n := len(p.spec.filters)
	var cmd tea.Cmd
	switch msg.String() {
	case "esc":
		p.mode = listBrowse
	case "enter":
		p.ctl, cmd = p.ctl.ApplyFilters()
		p.mode = listBrowse
		p.cursor = 0
	case "tab", "down":
		p.filterFocus = (p.filterFocus + 1) % n
	case "shift+tab", "up":
		p.filterFocus = (p.filterFocus - 1 + n) % n
	default:
		key := p.spec.filters[p.filterFocus].key
		value := editKey(p.ctl.PendingFilters()[key], msg)
		p.ctl = p.ctl.SetPendingFilters(map[string]string{key: value})
	}
	return p, cmd
}

func (p listPage[T]) buildForm(title string, item T) formModel {
	inputs := make([]formInput, len(p.spec.fields))
	for i, f := range p.spec.fields {
		inputs[i] = formInput{
			key:     f.key,
			label:   f.label,
			secret:  f.secret,
			options: f.options,
			hint:    p.suggestions[f.key],
		}
		if f.get != nil {
			inputs[i].value = f.get(item)
		}
	}
	return newFormModel(title, inputs)
}

func (p listPage[T]) updateForm(msg tea.KeyMsg) (page, tea.Cmd) {
	var action formAction
	p.form, action = p.form.Update(msg)
	switch action {
	case formCancel:
		p.ctl = p.ctl.CloseModal()
		p.mode = listBrowse
		return p, nil
	case formSubmit:
		return p.submitForm()
	}
	return p, nil
}

func (p listPage[T]) submitForm() (page, tea.Cmd) {
	mode, item := p.ctl.Modal()
	values := p.form.values()
	var errs []error
	for _, f := range p.spec.fields {
		if f.set == nil {
			continue
		}
		if err := f.set(&item, values[f.key]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.label, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		p.form.err = strings.ReplaceAll(err.Error(), "\n", "; ")
		return p, nil
	}

	var cmd tea.Cmd
	var err error
	if mode == listing.ModalEdit {
		_, current := p.ctl.Modal()
		p.ctl, cmd, err = p.ctl.Update(p.spec.idOf(current), item)
	} else {
		p.ctl, cmd, err = p.ctl.Create(item)
	}
	if err != nil {
		p.form.err = err.Error()
		return p, nil
	}
	p.form.submitting = true
	return p, cmd
}

func (p listPage[T]) updateConfirm(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "y":
		p.mode = listBrowse
		item, ok := p.selected()
		if !ok {
			return p, nil
		}
		var cmd tea.Cmd
		var err error
		p.ctl, cmd, err = p.ctl.Delete(p.spec.idOf(item))
		if err != nil {
			p.statusMsg = err.Error()
			return p, nil
		}
		p.statusMsg = "deleting..."
		return p, cmd
	case "n", "esc":
		p.mode = listBrowse
	}
	return p, nil
}

func (p listPage[T]) helpKeys() string {
	switch p.mode {
	case listFilter:
		return helpBar("tab", "next", "enter", "apply", "esc", "back")
	case listForm:
		return helpBar("tab", "next", "←/→", "choose", "ctrl+s", "save", "esc", "cancel")
	case listConfirmDelete:
		return helpBar("y", "delete", "n", "keep")
	}
	pairs := []string{"j/k", "nav", "[/]", "page", "</>", "column", "s", "sort"}
	if len(p.spec.filters) > 0 {
		pairs = append(pairs, "/", "filter", "x", "clear")
	}
	if p.spec.config.Create != nil {
		pairs = append(pairs, "a", "add")
	}
	if p.spec.config.Update != nil {
		pairs = append(pairs, "e", "edit")
	}
	if p.spec.config.Delete != nil {
		pairs = append(pairs, "d", "delete")
	}
	pairs = append(pairs, "c", "copy id", "r", "reload")
	return helpBar(pairs...)
}

func (p listPage[T]) View() string {
	var b strings.Builder

	// Title and status
	res := p.ctl.Result()
	title := sectionHeaderStyle.Render(strings.ToUpper(p.spec.title))
	counts := metaStyle.Render(fmt.Sprintf("%d total", res.TotalElements))
	for _, k := range slices.Sorted(maps.Keys(res.Aggregates)) {
		counts += metaStyle.Render(fmt.Sprintf(" · %s %d", k, res.Aggregates[k]))
	}
	fmt.Fprintf(&b, " %s  %s  %s\n", title, counts, p.statusLine())

	// Filters
	b.WriteString(p.filterLine() + "\n")

	if p.mode == listForm {
		b.WriteString("\n" + modalStyle.Render(p.form.View()) + "\n")
		return b.String()
	}

	// Table header
	var header strings.Builder
	header.WriteString("   ")
	query := p.ctl.Query()
	for i, col := range p.spec.columns {
		label := col.title
		if col.sort != "" && col.sort == query.SortBy {
			if query.SortDir == domain.SortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cell := padStr(label, col.width)
		if i == p.sortCol && col.sort != "" {
			header.WriteString(accentStyle.Render(cell))
		} else {
			header.WriteString(headerRowStyle.Render(cell))
		}
		header.WriteString(" ")
	}
	b.WriteString(header.String() + "\n")

	items := p.ctl.Items()
	if len(items) == 0 {
		switch p.ctl.Status() {
		case listing.StatusLoading:
			b.WriteString(dimStyle.Render("   loading...") + "\n")
		case listing.StatusError:
		default:
			b.WriteString(dimStyle.Render("   nothing found") + "\n")
		}
	}
	for i, it := range items {
		var row strings.Builder
		for _, col := range p.spec.columns {
			row.WriteString(padStr(col.value(it), col.width) + " ")
		}
		if i == p.cursor {
			b.WriteString(accentStyle.Render(" > ") + selectedRowBg.Render(selectedStyle.Render(row.String())) + "\n")
		} else {
			b.WriteString("   " + normalStyle.Render(row.String()) + "\n")
		}
	}

	// Pagination
	pages := max(res.TotalPages, 1)
	fmt.Fprintf(&b, "\n %s\n", metaStyle.Render(fmt.Sprintf("page %d of %d", p.ctl.Page()+1, pages)))

	if p.mode == listConfirmDelete {
		if item, ok := p.selected(); ok {
			b.WriteString(" " + warnStyle.Render(fmt.Sprintf("delete %s %s? (y/n)", p.spec.title, p.spec.idOf(item))) + "\n")
		}
	}
	return b.String()
}

func (p listPage[T]) statusLine() string {
	switch {
	case p.ctl.Status() == listing.StatusLoading:
		return dimStyle.Render("loading...")
	case p.ctl.Status() == listing.StatusSubmitting:
		return dimStyle.Render("saving...")
	case p.ctl.Err() != "" && p.mode != listForm:
		return errorStyle.Render(p.ctl.Err())
	case p.statusMsg != "":
		return okStyle.Render(p.statusMsg)
	}
	return ""
}

func (p listPage[T]) filterLine() string {
	if len(p.spec.filters) == 0 {
		return ""
	}
	pending := p.ctl.PendingFilters()
	applied := p.ctl.AppliedFilters()
	parts := make([]string, len(p.spec.filters))
	for i, f := range p.spec.filters {
		focused := p.mode == listFilter && i == p.filterFocus
		value := pending[f.key]
		label := metaStyle.Render(f.label + ":")
		if value != applied[f.key] {
			label = warnStyle.Render(f.label + "*:")
		}
		parts[i] = label + renderInput(value, "any", focused, false)
	}
	prompt := metaStyle.Render(" / ")
	if p.mode == listFilter {
		prompt = inputPromptStyle.Render(" / ")
	}
	return prompt + strings.Join(parts, "  ")
}
