package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lanscr/lanscr/internal/config"
	"github.com/lanscr/lanscr/internal/httpserver"
	"github.com/lanscr/lanscr/internal/stopsignal"
)

// controlBaseURL expands a bare port to a local URL and normalizes
// everything else.
func controlBaseURL(urlOrPort string) (string, error) {
	if n, err := strconv.ParseUint(urlOrPort, 10, 16); err == nil && n > 0 {
		return fmt.Sprintf("http://127.0.0.1:%d", n), nil
	}

	raw := urlOrPort
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("bad server url or port %q", urlOrPort)
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}

func runAudioMute(urlOrPort, value string) {
	loadConfig()

	v, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad mute value %q, expected 0 or 1\n", value)
		os.Exit(exitUsage)
	}

	base, err := controlBaseURL(urlOrPort)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/control?mute=%d", base, v), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	if authFlag != "" {
		user, pass, err := config.SplitAuth(authFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitUsage)
		}
		req.SetBasicAuth(user, pass)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Error("control request failed", "error", err)
		os.Exit(exitUsage)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		fmt.Fprintln(os.Stderr, "Unauthorized (401). Use --auth user:pass")
		os.Exit(exitRefused)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "control request refused: %s\n", resp.Status)
		os.Exit(exitRefused)
	}

	var state httpserver.ControlState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		log.Error("bad control response", "error", err)
		os.Exit(exitRefused)
	}
	log.Info("server state", "audioMuted", state.AudioMuted, "privateMode", state.PrivateMode, "port", state.Port)
}

func runStop(port uint16) {
	loadConfig()

	if err := stopsignal.Stop(port); err != nil {
		fmt.Fprintf(os.Stderr, "No running server detected on port %d (or access denied).\n", port)
		os.Exit(exitRefused)
	}
	log.Info("stop requested", "port", port)
}

func runDetect() {
	loadConfig()

	ports := stopsignal.Detect()
	if len(ports) == 0 {
		fmt.Println("No running servers detected.")
		return
	}
	for _, port := range ports {
		fmt.Println(port)
	}
}
