package httpserver

import (
	"net/http"
	"strings"
	"testing"
)

func TestExpectedTokenIsPlainBase64(t *testing.T) {
	a := NewAuthConfig("lanscr", "abc")
	if a.expected != "bGFuc2NyOmFiYw==" {
		t.Fatalf("expected token = %q, want bGFuc2NyOmFiYw==", a.expected)
	}
}

func authRequest(t *testing.T, header string) *http.Request {
	t.Helper()
	r, err := http.NewRequest(http.MethodGet, "/mjpeg", nil)
	if err != nil {
		t.Fatal(err)
	}
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestAuthorize(t *testing.T) {
	a := NewAuthConfig("lanscr", "abc")

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"exactToken", "Basic bGFuc2NyOmFiYw==", true},
		{"lowercaseScheme", "basic bGFuc2NyOmFiYw==", true},
		{"extraSpaces", "  Basic   bGFuc2NyOmFiYw==  ", true},
		{"missing", "", false},
		{"wrongScheme", "Bearer bGFuc2NyOmFiYw==", false},
		{"wrongToken", "Basic bGFuc2NyOnh5eg==", false},
		{"schemeOnly", "Basic", false},
	}
	for _, tc := range cases {
		if got := a.Authorize(authRequest(t, tc.header)); got != tc.want {
			t.Errorf("%s: Authorize = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		pw, err := GeneratePassword(GeneratedPasswordLength)
		if err != nil {
			t.Fatalf("GeneratePassword: %v", err)
		}
		if len(pw) != GeneratedPasswordLength {
			t.Fatalf("len = %d, want %d", len(pw), GeneratedPasswordLength)
		}
		for _, r := range pw {
			if !strings.ContainsRune(passwordAlphabet, r) {
				t.Fatalf("password %q contains %q outside the alphabet", pw, r)
			}
		}
		seen[pw] = true
	}
	if len(seen) < 2 {
		t.Fatal("generated passwords are not random")
	}
}
