package netinfo

import (
	"strings"
	"testing"
)

func TestShareURLsAlwaysReturnsSomething(t *testing.T) {
	urls := ShareURLs(8000)
	if len(urls) == 0 {
		t.Fatal("no share URLs")
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, "http://") || !strings.HasSuffix(u, ":8000/") {
			t.Fatalf("malformed share URL %q", u)
		}
	}
}

func TestParseIPv4(t *testing.T) {
	cases := map[string]string{
		"192.168.1.5/24": "192.168.1.5",
		"10.0.0.2":       "10.0.0.2",
		"fe80::1/64":     "",
		"::1":            "",
		"garbage":        "",
	}
	for in, want := range cases {
		if got := parseIPv4(in); got != want {
			t.Errorf("parseIPv4(%q) = %q, want %q", in, got, want)
		}
	}
}
