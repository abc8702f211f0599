package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in form and filter inputs.
const maxInputLen = 200

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// editKey applies a key press to text: backspace deletes a rune, space and
// typed or pasted runes are appended up to maxInputLen.
func editKey(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		return editRune(text, "backspace")
	case tea.KeySpace:
		return editRune(text, " ")
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			text = editRune(text, string(r))
		}
	}
	return text
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a single-line text field with a block cursor when focused.
func renderInput(value, placeholder string, focused, secret bool) string {
	if secret {
		value = maskSecret(value)
	}
	cursor := ""
	if focused {
		cursor = accentStyle.Render("█")
	}
	if value == "" {
		if focused {
			return cursor
		}
		return inputPlaceholderStyle.Render(placeholder)
	}
	if focused {
		return selectedStyle.Render(value) + cursor
	}
	return normalStyle.Render(value)
}

func maskSecret(s string) string {
	n := utf8.RuneCountInString(s)
	out := make([]rune, n)
	for i := range out {
		out[i] = '•'
	}
	return string(out)
}
