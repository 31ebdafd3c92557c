package config

import "testing"

func TestValidateClampsQuality(t *testing.T) {
	cfg := Default()
	cfg.Quality = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("quality clamp should not be fatal: %v", result.Fatals)
	}
	if cfg.Quality != 1 {
		t.Fatalf("Quality = %d, want 1", cfg.Quality)
	}

	cfg.Quality = 250
	cfg.ValidateTiered()
	if cfg.Quality != 100 {
		t.Fatalf("Quality = %d, want 100", cfg.Quality)
	}
}

func TestValidateNegativeFpsFallsToDefault(t *testing.T) {
	cfg := Default()
	cfg.Fps = -5
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("fps clamp should not be fatal: %v", result.Fatals)
	}
	if cfg.Fps != 0 {
		t.Fatalf("Fps = %d, want 0 (mode default)", cfg.Fps)
	}
}

func TestValidateZeroPortIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	if !cfg.ValidateTiered().HasFatals() {
		t.Fatal("zero port should be fatal")
	}
}

func TestValidateBadAuthIsFatal(t *testing.T) {
	for _, bad := range []string{"nopass:", ":nouser", "nocolon"} {
		cfg := Default()
		cfg.Auth = bad
		if !cfg.ValidateTiered().HasFatals() {
			t.Errorf("auth %q should be fatal", bad)
		}
	}
}

func TestSplitAuth(t *testing.T) {
	user, pass, err := SplitAuth("lanscr:pw")
	if err != nil {
		t.Fatalf("SplitAuth: %v", err)
	}
	if user != "lanscr" || pass != "pw" {
		t.Fatalf("got %q/%q, want lanscr/pw", user, pass)
	}

	// Passwords may themselves contain colons.
	_, pass, err = SplitAuth("u:a:b")
	if err != nil {
		t.Fatalf("SplitAuth with colon in pass: %v", err)
	}
	if pass != "a:b" {
		t.Fatalf("pass = %q, want a:b", pass)
	}
}
