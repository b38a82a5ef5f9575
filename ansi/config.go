package ansi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds terminal rendering settings.
type Config struct {
	// Width is the number of columns to wrap at.
	Width int
	// OSC8 emits hyperlinks as OSC 8 escape sequences. Without it link
	// targets are printed after the link text.
	OSC8 bool
	// Plain disables every escape sequence.
	Plain bool
	// ImageTimeout bounds image resolution when a resolver is given. Zero
	// waits for every image.
	ImageTimeout time.Duration
}

// DefaultConfig returns an 80 column configuration with colours and without
// OSC 8 links.
func DefaultConfig() Config {
	return Config{Width: 80}
}

func applyConfig(dst *Config, src Config) {
	if src.Width > 0 {
		dst.Width = src.Width
	}
	if src.OSC8 {
		dst.OSC8 = true
	}
	if src.Plain {
		dst.Plain = true
	}
	if src.ImageTimeout > 0 {
		dst.ImageTimeout = src.ImageTimeout
	}
}

// DetectOSC8Support returns true if the current environment likely supports OSC 8 hyperlinks.
func DetectOSC8Support() bool {
	if os.Getenv("OSC8") == "0" {
		return false
	}
	if os.Getenv("OSC8") == "1" {
		return true
	}
	if os.Getenv("DOMTERM") != "" || os.Getenv("WT_SESSION") != "" {
		return true
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "vscode", "ghostty":
		return true
	}
	if strings.Contains(strings.ToLower(os.Getenv("TERM")), "kitty") {
		return true
	}
	if vte := os.Getenv("VTE_VERSION"); vte != "" {
		if n, err := strconv.Atoi(vte); err == nil && n >= 5000 {
			return true
		}
	}
	return false
}
