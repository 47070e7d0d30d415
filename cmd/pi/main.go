// Command pi evaluates a π series over a term range and compares the result
// with the built-in 1000-character reference.
//
//	pi [-digits 1000] [-start 0] [-workers 1] [-v] <algorithm> <cnt>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pi-series/internal/observability"
	"pi-series/internal/pi"
	"pi-series/internal/series"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit status: 0 on
// success, 1 when the evaluation fails and 2 on a usage error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pi", flag.ContinueOnError)
	fs.SetOutput(stderr)
	digits := fs.Int("digits", 1000, "fractional digits to print")
	start := fs.Uint64("start", 0, "first term index")
	workers := fs.Int("workers", 1, "sub-ranges evaluated concurrently")
	verbose := fs.Bool("v", false, "log evaluation details to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: pi [flags] <algorithm> <cnt>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	s, err := series.ParseSeries(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	cnt, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "invalid term count %q: %v\n", fs.Arg(1), err)
		return 2
	}

	logger := newLogger(stderr, *verbose)
	defer logger.Sync()
	observability.Logger = logger
	series.SetLogger(logger)

	if err := pi.InitMetrics(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	svc := pi.NewService(pi.Limits{}, *digits)
	res, err := svc.Run(ctx, pi.Request{
		Series:  s,
		Start:   *start,
		End:     cnt,
		Digits:  *digits,
		Workers: *workers,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", s, err)
		return 1
	}

	fmt.Fprintln(stdout, res.Value)
	fmt.Fprintln(stdout, res.Comparison)
	return 0
}

// newLogger writes console-encoded logs to w: debug and up when verbose,
// warnings otherwise.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}
