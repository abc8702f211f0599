package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// formInput is one labeled field of a form. Fields with options cycle with
// left/right instead of accepting text.
type formInput struct {
	key     string
	label   string
	value   string
	secret  bool
	options []string
	hint    string
}

type formAction int

const (
	formNone formAction = iota
	formSubmit
	formCancel
)

// formModel edits a fixed list of string fields.
type formModel struct {
	title      string
	inputs     []formInput
	focus      int
	err        string
	submitting bool
}

func newFormModel(title string, inputs []formInput) formModel {
	return formModel{title: title, inputs: inputs}
}

// Update handles a key press. ctrl+s submits from anywhere; enter submits
// from the last field and otherwise moves to the next one.
func (m formModel) Update(msg tea.KeyMsg) (formModel, formAction) {
	if m.submitting {
		if msg.String() == "esc" {
			return m, formCancel
		}
		return m, formNone
	}
	n := len(m.inputs)
	if n == 0 {
		switch msg.String() {
		case "esc":
			return m, formCancel
		case "enter", "ctrl+s":
			return m, formSubmit
		}
		return m, formNone
	}

	switch msg.String() {
	case "esc":
		return m, formCancel
	case "ctrl+s":
		return m, formSubmit
	case "tab", "down":
		m.focus = (m.focus + 1) % n
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + n) % n
	case "enter":
		if m.focus == n-1 {
			return m, formSubmit
		}
		m.focus++
	case "left", "right":
		in := &m.inputs[m.focus]
		if len(in.options) > 0 {
			in.value = cycle(in.options, in.value, msg.String() == "right")
		}
	default:
		in := &m.inputs[m.focus]
		if len(in.options) == 0 {
			in.value = editKey(in.value, msg)
		}
	}
	m.err = ""
	return m, formNone
}

// cycle returns the option after (or before) current, wrapping around.
func cycle(options []string, current string, forward bool) string {
	i := slices.Index(options, current)
	switch {
	case i < 0:
		return options[0]
	case forward:
		return options[(i+1)%len(options)]
	default:
		return options[(i-1+len(options))%len(options)]
	}
}

// values returns the field values by key.
func (m formModel) values() map[string]string {
	out := make(map[string]string, len(m.inputs))
	for _, in := range m.inputs {
		out[in.key] = in.value
	}
	return out
}

// setHint attaches a suggestion line to the field with key.
func (m formModel) setHint(key, hint string) formModel {
	inputs := slices.Clone(m.inputs)
	for i := range inputs {
		if inputs[i].key == key {
			inputs[i].hint = hint
		}
	}
	m.inputs = inputs
	return m
}

func (m formModel) View() string {
	var b strings.Builder
	if m.title != "" {
		fmt.Fprintf(&b, "%s\n\n", selectedStyle.Render(m.title))
	}

	labelWidth := 0
	for _, in := range m.inputs {
		labelWidth = max(labelWidth, len(in.label))
	}
	for i, in := range m.inputs {
		cursor := " "
		style := metaStyle
		focused := i == m.focus
		if focused {
			cursor = accentStyle.Render(">")
			style = selectedStyle
		}
		label := style.Render(fmt.Sprintf("%-*s", labelWidth, in.label))
		if len(in.options) > 0 {
			value := in.value
			if value == "" {
				value = "-"
			}
			fmt.Fprintf(&b, "%s %s  %s %s\n", cursor, label, normalStyle.Render(value), metaStyle.Render("(←/→)"))
		} else {
			fmt.Fprintf(&b, "%s %s  %s\n", cursor, label, renderInput(in.value, "", focused, in.secret))
		}
		if focused && in.hint != "" {
			fmt.Fprintf(&b, "  %s  %s\n", strings.Repeat(" ", labelWidth), dimStyle.Render(in.hint))
		}
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("saving..."))
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	}
	return b.String()
}
