package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

const HelpBanner = `
┌─┐┬ ┬┬─┐┌─┐
├─┤│ │├┬┘├─┤
┴ ┴└─┘┴└─┴ ┴

Virtual try-on: face and feature detection with live makeup, eyewear and garment overlays.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version is the application version.
const Version = "0.3.0"

var (
	verbose bool
	logger  = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:     "aura",
	Short:   "Virtual try-on engine",
	Long:    fmt.Sprintf(HelpBanner, Version),
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose || getEnvBool("AURA_DEBUG", false) {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
	SilenceUsage: true,
}

func main() {
	// Cancel the command context on Ctrl+C (SIGINT) or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// getEnv returns the value of the environment variable or the default.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// flagOrEnv resolves a string flag: an explicitly set flag wins over the
// environment variable, which wins over the flag default.
func flagOrEnv(cmd *cobra.Command, name, key string) string {
	f := cmd.Flags().Lookup(name)
	if f.Changed {
		return f.Value.String()
	}
	return getEnv(key, f.DefValue)
}

func flagOrEnvInt(cmd *cobra.Command, name, key string) int {
	f := cmd.Flags().Lookup(name)
	def, _ := strconv.Atoi(f.DefValue)
	if f.Changed {
		v, _ := strconv.Atoi(f.Value.String())
		return v
	}
	return getEnvInt(key, def)
}
