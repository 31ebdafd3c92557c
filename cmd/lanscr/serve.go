package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/lanscr/lanscr/internal/capture"
	"github.com/lanscr/lanscr/internal/config"
	"github.com/lanscr/lanscr/internal/httpserver"
	"github.com/lanscr/lanscr/internal/netinfo"
	"github.com/lanscr/lanscr/internal/stopsignal"
	"github.com/lanscr/lanscr/internal/udpstream"
)

// resolveServe folds positional args over the loaded config.
func resolveServe(cfg *config.Config, port uint16, fps, quality int) {
	cfg.Port = port
	if fps != 0 {
		cfg.Fps = fps
	}
	if quality >= 0 {
		cfg.Quality = clampQuality(quality)
	}
}

// setupAuth resolves --auth/--private into credentials. Generated
// credentials are printed once so the operator can hand them out.
func setupAuth(cfg *config.Config) *httpserver.AuthConfig {
	if cfg.Auth != "" {
		user, pass, err := config.SplitAuth(cfg.Auth)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitUsage)
		}
		return httpserver.NewAuthConfig(user, pass)
	}
	if cfg.Private {
		pass, err := httpserver.GeneratePassword(httpserver.GeneratedPasswordLength)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitUsage)
		}
		fmt.Printf("Private mode credentials: lanscr / %s\n", pass)
		return httpserver.NewAuthConfig("lanscr", pass)
	}
	return nil
}

// claimPort takes the stop signal for port, wiring Ctrl-C into it. The
// signal's existence is the single-server-per-port admission lock.
func claimPort(port uint16) *stopsignal.Signal {
	sig, err := stopsignal.Create(port)
	if err != nil {
		if err == stopsignal.ErrAlreadyRunning {
			log.Error("a server is already running for this port", "port", port)
		} else {
			log.Error("stop signal setup failed", "port", port, "error", err)
		}
		os.Exit(exitUsage)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		sig.Trigger()
	}()
	return sig
}

func newGrabber(quality int) func() ([]byte, error) {
	grabber, err := capture.New(capture.Config{Quality: quality})
	if err != nil {
		log.Error("screen capture unavailable", "error", err)
		os.Exit(exitUsage)
	}
	return func() ([]byte, error) {
		frame, err := capture.CaptureJPEG(grabber, quality)
		if err != nil {
			return nil, err
		}
		return frame.Bytes, nil
	}
}

func runServer(port uint16, fps, quality int) {
	cfg := loadConfig()
	resolveServe(cfg, port, fps, quality)

	auth := setupAuth(cfg)
	sig := claimPort(cfg.Port)
	defer sig.Close()

	srv := httpserver.New(httpserver.Options{
		Port:         cfg.Port,
		Fps:          cfg.Fps,
		Quality:      cfg.Quality,
		Auth:         auth,
		Private:      auth != nil,
		AudioEnabled: !cfg.NoAudio,
		MuteAudio:    cfg.MuteAudio,
	}, newGrabber(cfg.Quality))

	for _, url := range netinfo.ShareURLs(cfg.Port) {
		log.Info("share link", "url", url)
	}

	if err := srv.Run(sig.C()); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(exitUsage)
	}
	log.Info("server stopped", "port", cfg.Port)
}

func runUdpServer(port uint16, fps, quality int) {
	cfg := loadConfig()
	resolveServe(cfg, port, fps, quality)

	sig := claimPort(cfg.Port)
	defer sig.Close()

	srv, err := udpstream.NewServer(udpstream.ServerConfig{
		Port:    cfg.Port,
		Fps:     cfg.Fps,
		Quality: cfg.Quality,
	}, newGrabber(cfg.Quality))
	if err != nil {
		log.Error("udp server failed", "error", err)
		os.Exit(exitUsage)
	}

	if err := srv.Run(sig.C()); err != nil {
		log.Error("udp server failed", "error", err)
		os.Exit(exitUsage)
	}
	log.Info("udp server stopped", "port", cfg.Port)
}

func runUdpClient(serverIP string, port uint16) {
	loadConfig()

	client, err := udpstream.NewClient(serverIP, port, newStatsSink())
	if err != nil {
		log.Error("udp client failed", "error", err)
		os.Exit(exitUsage)
	}

	stop := make(chan struct{})
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		close(stop)
	}()

	if err := client.Run(stop); err != nil {
		log.Error("udp client failed", "error", err)
		os.Exit(exitUsage)
	}
}
