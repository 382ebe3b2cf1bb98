package utils

import (
	"strings"
	"testing"
)

// The mask is registered as a new-document script before the first
// navigation; every tell it is supposed to patch must be present in it.
func TestFingerprintScriptCoversKnownTells(t *testing.T) {
	tells := []string{
		"navigator, 'webdriver'",
		"navigator, 'plugins'",
		"navigator, 'languages'",
		"window.chrome",
		"loadTimes",
		"csi",
		"permissions.query",
		"getTimezoneOffset",
	}
	for _, tell := range tells {
		if !strings.Contains(fingerprintScript, tell) {
			t.Errorf("fingerprint script does not patch %q", tell)
		}
	}
}

func TestRandomUserAgentIsARealChromeString(t *testing.T) {
	for i := 0; i < 20; i++ {
		ua := RandomUserAgent()
		if !strings.Contains(ua, "Chrome/") || !strings.Contains(ua, "Mozilla/5.0") {
			t.Fatalf("suspicious user agent: %q", ua)
		}
	}
}
