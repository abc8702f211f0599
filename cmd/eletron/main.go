package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/smarteletron/eletron/internal/config"
	"github.com/smarteletron/eletron/internal/logging"
	"github.com/smarteletron/eletron/internal/session"
	"github.com/smarteletron/eletron/internal/tui"
	"github.com/smarteletron/eletron/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "--version", "version", "-v":
		fmt.Fprintln(out, "eletron "+version)
		return nil
	case "help", "--help", "-h":
		printHelp(out)
		return nil
	case "", "logout", "status":
	default:
		printHelp(out)
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer logFile.Close() //nolint:errcheck
	log := logging.New(cfg.Environment, cfg.Logging.Level, logFile)

	switch cmd {
	case "logout":
		return runLogout(cfg, log, out)
	case "status":
		return runStatus(cfg, log, out)
	}
	return runConsole(cfg, log)
}

func runConsole(cfg *config.Config, log zerolog.Logger) error {
	// The manager can end the session from its watch goroutine before the
	// program exists, so the callback reads the program through a pointer.
	var program atomic.Pointer[tea.Program]
	mgr := session.NewManager(session.NewFileStore(cfg.Session.StateDir),
		session.WithLogger(log),
		session.WithCheckInterval(cfg.Session.CheckInterval),
		session.WithOnLogout(func(r session.Reason) {
			if p := program.Load(); p != nil {
				// Send blocks until the program reads it; never hold up the caller.
				go p.Send(tui.LoggedOutMsg{Reason: r})
			}
		}),
	)
	defer mgr.Close()
	mgr.Restore()

	c := client.New(client.Config{
		BusinessURL:    cfg.API.BusinessURL,
		LegacyURL:      cfg.API.LegacyURL,
		Timeout:        cfg.API.Timeout,
		Token:          mgr.Token,
		OnUnauthorized: func() { mgr.Logout(session.LogoutUnauthorized) },
	})

	app := tui.NewApp(c, mgr, tui.Options{
		PageSize:    cfg.List.PageSize,
		BusinessURL: cfg.API.BusinessURL,
		LegacyURL:   cfg.API.LegacyURL,
		Logger:      &log,
	})

	log.Info().Str("version", version).Str("business_url", cfg.API.BusinessURL).Msg("console starting")
	p := tea.NewProgram(app, tea.WithAltScreen())
	program.Store(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout(cfg *config.Config, log zerolog.Logger, out io.Writer) error {
	mgr := session.NewManager(session.NewFileStore(cfg.Session.StateDir), session.WithLogger(log))
	defer mgr.Close()
	if !mgr.Restore() {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	mgr.Logout(session.LogoutUser)
	fmt.Fprintln(out, "Signed out.")
	return nil
}

func runStatus(cfg *config.Config, log zerolog.Logger, out io.Writer) error {
	mgr := session.NewManager(session.NewFileStore(cfg.Session.StateDir), session.WithLogger(log))
	defer mgr.Close()
	mgr.Restore()

	user, ok := mgr.User()
	exp, _ := mgr.ExpiresAt()
	if !ok {
		printBanner(out)
		fmt.Fprintln(out, "  Not signed in. Run eletron to open the console.")
		fmt.Fprintln(out)
		return nil
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	fmt.Fprintf(out, "\n  %s (%s)\n", lipgloss.NewStyle().Bold(true).Render(name), user.Username)
	fmt.Fprintf(out, "  %s %s\n", label.Render("roles      "), strings.Join(user.Roles, ", "))
	fmt.Fprintf(out, "  %s %d\n", label.Render("permissions"), len(user.Permissions))
	fmt.Fprintf(out, "  %s %s (in %s)\n\n", label.Render("expires    "),
		exp.Local().Format(time.DateTime), time.Until(exp).Round(time.Minute))
	return nil
}

func printBanner(out io.Writer) {
	fig := figure.NewFigure("eletron", "cybermedium", true)
	fmt.Fprintln(out)
	fmt.Fprint(out, fig.String())
	fmt.Fprintln(out)
}

func printHelp(out io.Writer) {
	printBanner(out)
	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"eletron", "Open the back-office console"},
		{"eletron status", "Show the signed-in user and token expiry"},
		{"eletron logout", "Clear the stored session"},
		{"eletron --version", "Show version"},
		{"eletron help", "Show this help"},
	}
	fmt.Fprintln(out, "  Commands:")
	for _, c := range commands {
		fmt.Fprintf(out, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintln(out, "\n  Settings come from ./eletron.yaml, ~/.eletron/eletron.yaml and ELETRON_* variables.")
	fmt.Fprintln(out)
}
