package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestEditRuneAddCharacters(t *testing.T) {
	tests := []struct {
		name  string
		start string
		key   string
		want  string
	}{
		{"append to empty", "", "a", "a"},
		{"append letter", "cen", "t", "cent"},
		{"append digit", "loja", "1", "loja1"},
		{"append space", "loja", " ", "loja "},
		{"append accented", "Joa", "ã", "Joaã"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, tc.key)
			if got != tc.want {
				t.Errorf("editRune(%q, %q) = %q, want %q", tc.start, tc.key, got, tc.want)
			}
		})
	}
}

func TestEditRuneBackspaceMultibyte(t *testing.T) {
	got := editRune("São", "backspace")
	if got != "Sã" {
		t.Errorf("editRune(multi-byte, backspace) = %q, want %q", got, "Sã")
	}
	got = editRune("Sã", "backspace")
	if got != "S" {
		t.Errorf("editRune ending with multi-byte rune = %q, want %q", got, "S")
	}
	if got := editRune("", "backspace"); got != "" {
		t.Errorf("backspace on empty = %q", got)
	}
}

func TestEditRuneIgnoresNonPrintableKeys(t *testing.T) {
	for _, k := range []string{"enter", "esc", "up", "down", "ctrl+c", "ctrl+s", "tab", "shift+tab"} {
		if got := editRune("abc", k); got != "abc" {
			t.Errorf("editRune(%q) = %q, want unchanged", k, got)
		}
	}
}

func TestEditRuneMaxInputLen(t *testing.T) {
	atLimit := strings.Repeat("a", maxInputLen)
	if got := editRune(atLimit, "b"); got != atLimit {
		t.Error("input at limit should not grow")
	}
	below := strings.Repeat("a", maxInputLen-1)
	if got := editRune(below, "b"); got != below+"b" {
		t.Error("input below limit should accept one more rune")
	}
}

func TestEditKey(t *testing.T) {
	got := editKey("Lo", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ja 1")})
	if got != "Loja 1" {
		t.Errorf("paste = %q", got)
	}
	if got := editKey("a", tea.KeyMsg{Type: tea.KeySpace}); got != "a " {
		t.Errorf("space = %q", got)
	}
	if got := editKey("ab", tea.KeyMsg{Type: tea.KeyBackspace}); got != "a" {
		t.Errorf("backspace = %q", got)
	}
	if got := editKey("ab", tea.KeyMsg{Type: tea.KeyEnter}); got != "ab" {
		t.Errorf("enter = %q", got)
	}
	long := strings.Repeat("a", maxInputLen-2)
	if got := editKey(long, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xyz")}); got != long+"xy" {
		t.Error("paste should be clamped at maxInputLen")
	}
}

func TestTruncateToHeight(t *testing.T) {
	s := "a\nb\nc\nd\n"
	if got := truncateToHeight(s, 2); got != "a\nb\n" {
		t.Errorf("truncateToHeight(2) = %q", got)
	}
	if got := truncateToHeight(s, 10); got != s {
		t.Errorf("truncateToHeight(10) = %q", got)
	}
	if got := truncateToHeight(s, 0); got != s {
		t.Errorf("truncateToHeight(0) = %q", got)
	}
	if got := truncateToHeight(s, -1); got != s {
		t.Errorf("truncateToHeight(-1) = %q", got)
	}
}

func TestRenderInputMasksSecret(t *testing.T) {
	got := renderInput("secret", "", false, true)
	if strings.Contains(got, "secret") {
		t.Errorf("secret shown in clear: %q", got)
	}
	if !strings.Contains(got, "••••••") {
		t.Errorf("expected mask, got %q", got)
	}
	if got := renderInput("", "any", false, false); !strings.Contains(got, "any") {
		t.Errorf("expected placeholder, got %q", got)
	}
}
