// Command spillsort sorts text files larger than memory.
//
//	spillsort [flags] <input> <output>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/pflag"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/rows"
	"github.com/lanrat/spillsort/tempfile"
)

type config struct {
	opts    spillsort.Options
	verbose bool
	csv     bool
	dialect rows.Dialect
	input   string
	output  string
}

var errUsage = errors.New("usage: spillsort [flags] <input> <output>")

// parseFlags maps the command line onto sort options.
func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := pflag.NewFlagSet("spillsort", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfg       config
		compress  string
		delimiter string
	)
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log progress to stderr")
	fs.BoolVarP(&cfg.opts.Distinct, "distinct", "d", false, "drop duplicate records")
	fs.IntVarP(&cfg.opts.MaxTempFiles, "max-temp-files", "t", spillsort.DefaultMaxTempFiles, "target upper bound on temporary run files")
	fs.StringVarP(&cfg.opts.Charset, "charset", "c", "", "character encoding of the input and output (default UTF-8)")
	fs.StringVarP(&compress, "compress", "z", "none", "compress temporary run files: none, gzip or zstd")
	fs.Lookup("compress").NoOptDefVal = "gzip"
	fs.IntVarP(&cfg.opts.NumHeader, "header-count", "H", 0, "number of leading records excluded from sorting")
	fs.BoolVar(&cfg.opts.EmitHeader, "emit-header", false, "write the excluded header records before the sorted output")
	fs.StringVarP(&cfg.opts.TempDir, "temp-dir", "s", "", "directory for temporary run files")
	fs.BoolVarP(&cfg.opts.Append, "append", "a", false, "append to the output instead of truncating it")
	fs.Int64VarP(&cfg.opts.MaxMemory, "max-memory", "m", 0, "memory budget in bytes (default: sampled free memory)")
	fs.IntVarP(&cfg.opts.SortWorkers, "sort-workers", "w", 4, "goroutines sorting each batch")
	fs.BoolVar(&cfg.csv, "csv", false, "treat input as delimited rows instead of lines")
	fs.StringVar(&delimiter, "delimiter", ",", "field delimiter for --csv")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errUsage
	}
	cfg.input, cfg.output = fs.Arg(0), fs.Arg(1)

	c, err := tempfile.ParseCompression(compress)
	if err != nil {
		return nil, err
	}
	cfg.opts.Compression = c

	if utf8.RuneCountInString(delimiter) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}
	cfg.dialect = rows.DefaultDialect()
	cfg.dialect.Comma, _ = utf8.DecodeRuneInString(delimiter)
	return &cfg, nil
}

func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowWarn())
}

func run(ctx context.Context, cfg *config, logger log.Logger) (int64, error) {
	cfg.opts.Logger = logger
	if cfg.csv {
		return rows.SortFile(ctx, cfg.input, cfg.output, cfg.dialect, rows.Compare, &cfg.opts)
	}
	return spillsort.SortLines(ctx, cfg.input, cfg.output, &cfg.opts)
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	logger := newLogger(os.Stderr, cfg.verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	n, err := run(ctx, cfg, logger)
	if err != nil {
		level.Error(logger).Log("msg", "sort failed", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "sorted", "input", cfg.input, "output", cfg.output, "records", n)
}
