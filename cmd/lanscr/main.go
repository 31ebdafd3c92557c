package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lanscr/lanscr/internal/config"
	"github.com/lanscr/lanscr/internal/logging"
)

var version = "0.1.0"

// Exit codes: 0 success, 1 usage/config error, 2 remote action refused.
const (
	exitUsage   = 1
	exitRefused = 2
)

var (
	cfgFile   string
	verbose   bool
	authFlag  string
	private   bool
	muteAudio bool
	noAudio   bool
	muteLocal bool
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "lanscr",
	Short: "LAN screen and audio sharing",
	Long: `lanscr shares this machine's screen and system audio over the local
network: an HTTP mode any browser can view (MJPEG video + streaming WAV
audio) and a UDP mode pushing chunked JPEG frames at higher frame rates.`,
}

var serverCmd = &cobra.Command{
	Use:   "server <port> [fps] [quality]",
	Short: "Start the HTTP streaming server",
	Args:  cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		port, fps, quality := parseServeArgs(args)
		runServer(port, fps, quality)
	},
}

var udpServerCmd = &cobra.Command{
	Use:   "udp-server <port> [fps] [quality]",
	Short: "Start the UDP chunked-JPEG server",
	Args:  cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		port, fps, quality := parseServeArgs(args)
		runUdpServer(port, fps, quality)
	},
}

var udpClientCmd = &cobra.Command{
	Use:   "udp-client <serverIp> <port>",
	Short: "Subscribe to a UDP server and decode its frames",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runUdpClient(args[0], parsePort(args[1]))
	},
}

var audioMuteCmd = &cobra.Command{
	Use:   "audio-mute <urlOrPort> <0|1>",
	Short: "Toggle a running server's audio mute",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runAudioMute(args[0], args[1])
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <port>",
	Short: "Ask the server on <port> to shut down gracefully",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStop(parsePort(args[0]))
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List ports with a running server on this host",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runDetect()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lanscr v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default lanscr.yaml in the config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&authFlag, "auth", "", "require HTTP Basic Auth (user:pass)")
	rootCmd.PersistentFlags().BoolVar(&private, "private", false, "require auth with a generated password")
	rootCmd.PersistentFlags().BoolVar(&muteAudio, "mute-audio", false, "start with server audio muted")
	rootCmd.PersistentFlags().BoolVar(&noAudio, "no-audio", false, "disable the /audio endpoint")
	rootCmd.PersistentFlags().BoolVar(&muteLocal, "mute", false, "alias of --mute-audio")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(udpServerCmd)
	rootCmd.AddCommand(udpClientCmd)
	rootCmd.AddCommand(audioMuteCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}

// loadConfig merges the optional file/env config with the CLI surface and
// initializes logging. Exits on fatal config errors.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	if verbose {
		cfg.Verbose = true
	}
	if authFlag != "" {
		cfg.Auth = authFlag
	}
	if private {
		cfg.Private = true
	}
	if muteAudio || muteLocal {
		cfg.MuteAudio = true
	}
	if noAudio {
		cfg.NoAudio = true
	}

	initLogging(cfg)
	return cfg
}

// initLogging sets up structured logging from config. Call after loadConfig.
func initLogging(cfg *config.Config) {
	var output io.Writer = os.Stdout

	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v (logging to stdout)\n", cfg.LogFile, err)
		} else {
			output = logging.TeeWriter(os.Stdout, rw)
		}
	}

	level := "info"
	if cfg.Verbose {
		level = "debug"
	}
	logging.Init(cfg.LogFormat, level, output)
	log = logging.L("main")
}

func parsePort(s string) uint16 {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		fmt.Fprintf(os.Stderr, "bad port %q\n", s)
		os.Exit(exitUsage)
	}
	return uint16(n)
}

// parseServeArgs handles the shared <port> [fps] [quality] tail.
func parseServeArgs(args []string) (port uint16, fps, quality int) {
	port = parsePort(args[0])
	fps = 0      // per-mode default
	quality = -1 // config default
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad fps %q\n", args[1])
			os.Exit(exitUsage)
		}
		fps = n
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad quality %q\n", args[2])
			os.Exit(exitUsage)
		}
		quality = n
	}
	return port, fps, quality
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
