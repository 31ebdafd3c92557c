package main

import "testing"

func TestControlBaseURL(t *testing.T) {
	cases := map[string]string{
		"8000":                        "http://127.0.0.1:8000",
		"http://192.168.1.50:8000":    "http://192.168.1.50:8000",
		"http://192.168.1.50:8000/":   "http://192.168.1.50:8000",
		"192.168.1.50:8000":           "http://192.168.1.50:8000",
		"http://host:8000/index.html": "http://host:8000",
	}
	for in, want := range cases {
		got, err := controlBaseURL(in)
		if err != nil {
			t.Errorf("controlBaseURL(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("controlBaseURL(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := controlBaseURL(""); err == nil {
		t.Error("empty input should fail")
	}
}

func TestClampQuality(t *testing.T) {
	cases := map[int]int{-5: 1, 0: 1, 1: 1, 50: 50, 100: 100, 120: 100}
	for in, want := range cases {
		if got := clampQuality(in); got != want {
			t.Errorf("clampQuality(%d) = %d, want %d", in, got, want)
		}
	}
}
