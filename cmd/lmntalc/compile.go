package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitrdm/lmntalc/internal/batch"
	"github.com/gitrdm/lmntalc/pkg/compiler"
	"github.com/gitrdm/lmntalc/pkg/emit"
	"github.com/gitrdm/lmntalc/pkg/parsetree"
)

var (
	optimizeLevel uint8
	disables      []string
	target        string
	outDir        string
	workers       int
	colorize      bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <file...>",
	Short: "compile one or more session JSON files to IL",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().Uint8VarP(&optimizeLevel, "optimize-level", "o", 0, "optimiser level (0..N)")
	compileCmd.Flags().StringArrayVarP(&disables, "disables", "d", nil, "disable an optimiser by uid (repeatable)")
	compileCmd.Flags().StringVarP(&target, "target", "t", "text", "output target: text or binary")
	compileCmd.Flags().StringVar(&outDir, "out", "", "directory to write <input base name>.il into for each input (stdout if empty)")
	compileCmd.Flags().IntVarP(&workers, "workers", "j", 1, "number of files to compile concurrently")
	compileCmd.Flags().BoolVar(&colorize, "color", false, "bold section headers when writing text IL to a terminal")
}

func runCompile(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	emitTarget, err := targetFor(target)
	if err != nil {
		return err
	}

	pool := batch.NewPool(workers, log)
	results, stats := pool.Run(cmd.Context(), args, func(path string) error {
		return compileOne(path, emitTarget, log)
	})
	log.Info("batch complete",
		zap.Int("submitted", stats.Submitted),
		zap.Int("completed", stats.Completed),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", stats.Duration),
	)

	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

func targetFor(name string) (emit.Target, error) {
	switch name {
	case "text":
		return emit.Text{}, nil
	case "binary":
		return emit.Binary{}, nil
	default:
		return nil, fmt.Errorf("--target: unknown target %q, want text or binary", name)
	}
}

func compileOne(path string, emitTarget emit.Target, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return wrappedIOError{fmt.Errorf("%s: %w", path, err)}
	}
	defer f.Close()

	root, err := parsetree.DecodeJSON(f)
	if err != nil {
		return err
	}

	prog, err := compiler.Compile(root, compiler.Options{
		OptimizeLevel: optimizeLevel,
		Disables:      disables,
		Logger:        log,
	})
	if err != nil {
		log.Warn("compile failed", zap.String("path", path), zap.Error(err))
		return err
	}

	w, closeW, err := outputWriter(path)
	if err != nil {
		return err
	}
	defer closeW()

	if colorize && outDir == "" && isTerminal(os.Stdout) {
		var buf strings.Builder
		if err := emitTarget.Emit(&buf, prog); err != nil {
			return wrappedIOError{fmt.Errorf("%s: %w", path, err)}
		}
		if _, err := io.WriteString(w, boldHeaders(buf.String())); err != nil {
			return wrappedIOError{fmt.Errorf("%s: %w", path, err)}
		}
	} else if err := emitTarget.Emit(w, prog); err != nil {
		return wrappedIOError{fmt.Errorf("%s: %w", path, err)}
	}
	log.Debug("compiled", zap.String("path", path))
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// boldHeaders wraps section-header lines in a bold ANSI escape.
// Instruction lines always contain a tab or are "proceed"-style bare
// opcodes inside a section, so a header is any non-empty line with no tab
// that starts with an uppercase letter.
func boldHeaders(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" || strings.ContainsRune(line, '\t') {
			continue
		}
		if line[0] >= 'A' && line[0] <= 'Z' {
			lines[i] = "\x1b[1m" + line + "\x1b[0m"
		}
	}
	return strings.Join(lines, "\n")
}

// outputWriter resolves where compiled IL for path goes: stdout if --out is
// unset, or <out>/<base without ext>.il otherwise. The returned close func
// is always safe to call.
func outputWriter(path string) (*os.File, func(), error) {
	if outDir == "" {
		return os.Stdout, func() {}, nil
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, base+".il")
	f, err := os.Create(outPath)
	if err != nil {
		return nil, func() {}, wrappedIOError{fmt.Errorf("%s: %w", outPath, err)}
	}
	return f, func() { f.Close() }, nil
}
