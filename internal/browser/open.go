// Package browser hands API documentation links to the desktop browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// start launches the platform opener. Replaced in tests.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens an http or https URL in the user's default browser. Other
// schemes are refused so a configured link cannot launch a local program.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("browser.Open: refusing %q", rawURL)
	}
	switch runtime.GOOS {
	case "darwin":
		return start("open", u.String())
	case "linux", "freebsd", "openbsd":
		return start("xdg-open", u.String())
	case "windows":
		return start("rundll32", "url.dll,FileProtocolHandler", u.String())
	default:
		return fmt.Errorf("browser.Open: unsupported OS %s", runtime.GOOS)
	}
}
