// Command lmntalc drives the compile pipeline (pkg/walker ->
// pkg/ruleanalysis -> pkg/lower -> pkg/optimizer -> pkg/emit, orchestrated
// by pkg/compiler) from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitOK       = 0
	exitAnalysis = 1
	exitIO       = 2
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "lmntalc",
	Short:         "LMNtal rule compiler",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(compileCmd, inspectCmd)
}

func newLogger() (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lmntalc:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error surfaced by a subcommand to an exit code:
// 1 for parse/analysis errors, 2 for IO errors.
// ioError is a marker interface implemented only by failures the
// subcommands tag as IO (file not found, not writable); everything else
// that reaches main is a parse/analysis error.
func exitCodeFor(err error) int {
	if _, ok := err.(ioError); ok {
		return exitIO
	}
	return exitAnalysis
}

type ioError interface {
	IOError()
}

type wrappedIOError struct{ error }

func (wrappedIOError) IOError() {}
