package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smarteletron/eletron/pkg/client"
	"github.com/smarteletron/eletron/pkg/domain"
)

type loginResultMsg struct {
	resp *domain.LoginResponse
	err  error
}

// loggedInMsg tells the app the session now holds a valid token.
type loggedInMsg struct{}

type loginModel struct {
	client  *client.Client
	session Session
	form    formModel
	notice  string
}

func newLoginModel(c *client.Client, s Session, notice string) loginModel {
	return loginModel{
		client:  c,
		session: s,
		notice:  notice,
		form: newFormModel("", []formInput{
			{key: "username", label: "username"},
			{key: "password", label: "password", secret: true},
		}),
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.form.submitting = false
		if msg.err != nil {
			if client.IsUnauthorized(msg.err) {
				m.form.err = "invalid username or password"
			} else {
				m.form.err = client.Describe(msg.err)
			}
			m.form.inputs[1].value = ""
			m.form.focus = 1
			return m, nil
		}
		if err := m.session.Login(*msg.resp); err != nil {
			m.form.err = fmt.Sprintf("could not start session: %v", err)
			return m, nil
		}
		m.notice = ""
		return m, func() tea.Msg { return loggedInMsg{} }

	case tea.KeyMsg:
		var action formAction
		m.form, action = m.form.Update(msg)
		if action == formSubmit {
			return m.submit()
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	values := m.form.values()
	username := strings.TrimSpace(values["username"])
	password := values["password"]
	if username == "" || password == "" {
		m.form.err = "username and password are required"
		return m, nil
	}

	m.form.submitting = true
	m.notice = ""
	c := m.client
	return m, func() tea.Msg {
		resp, err := c.Login(context.Background(), username, password)
		return loginResultMsg{resp: resp, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + sectionHeaderStyle.Render("Sign in to the back office") + "\n\n")
	if m.notice != "" {
		b.WriteString("  " + warnStyle.Render(m.notice) + "\n\n")
	}
	for _, line := range strings.Split(m.form.View(), "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
