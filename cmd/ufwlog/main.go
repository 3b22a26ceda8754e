// ufwlog converts UFW firewall kernel logs into CSV or JSON Lines files.
//
// Usage:
//
//	ufwlog export -l /var/log/ufw.log -o ./ufwlog.csv
//	ufwlog export -l /var/log -f jsonl -o fw.jsonl.gz --state ufwlog.db
//	ufwlog completion bash > /etc/bash_completion.d/ufwlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/SteelMorgan/ufwlog/internal/config"
	"github.com/SteelMorgan/ufwlog/internal/observability"
	"github.com/SteelMorgan/ufwlog/internal/service"
	"github.com/rs/zerolog/log"
)

// Version information (set via build flags)
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches the subcommand and returns the process exit code
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return 0
	}

	switch args[0] {
	case "export":
		return runExport(args[1:], stdin, stdout, stderr)
	case "completion":
		return runCompletion(args[1:], stdout, stderr)
	case "version", "-V", "--version":
		fmt.Fprintf(stdout, "ufwlog version %s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

// exportFlags holds the export command line; empty values leave the
// configuration untouched
type exportFlags struct {
	configPath string
	input      string
	output     string
	format     string
	overwrite  bool
	onError    string
	state      string
	logLevel   string
	logPretty  bool
}

func newExportFlagSet(f *exportFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.configPath, "c", "", "YAML configuration file (shorthand)")
	fs.StringVar(&f.input, "log", "", "UFW log file, directory of rotated logs, or - for stdin")
	fs.StringVar(&f.input, "l", "", "UFW log input (shorthand)")
	fs.StringVar(&f.output, "output", "", "Output file (default ./ufwlog.<format>)")
	fs.StringVar(&f.output, "o", "", "Output file (shorthand)")
	fs.StringVar(&f.format, "format", "", "Output format: csv or jsonl")
	fs.StringVar(&f.format, "f", "", "Output format (shorthand)")
	fs.BoolVar(&f.overwrite, "overwrite", false, "Replace an existing output file")
	fs.StringVar(&f.onError, "on-error", "", "Bad line policy: fail-fast or skip")
	fs.StringVar(&f.state, "state", "", "BoltDB file for resuming from the last run")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error, quiet")
	fs.BoolVar(&f.logPretty, "log-pretty", false, "Human-readable logs instead of JSON")
	fs.Usage = func() { printExportUsage(stderr) }
	return fs
}

// apply overlays the flags that were given on the command line
func (f *exportFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "log", "l":
			cfg.Input = f.input
		case "output", "o":
			cfg.Output = f.output
		case "format", "f":
			cfg.Format = f.format
		case "overwrite":
			cfg.Overwrite = f.overwrite
		case "on-error":
			cfg.OnError = f.onError
		case "state":
			cfg.StatePath = f.state
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "log-pretty":
			cfg.LogPretty = f.logPretty
		}
	})
}

func runExport(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var f exportFlags
	fs := newExportFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "error: unexpected argument %q\n", fs.Arg(0))
		return 2
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	f.apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	observability.InitLoggerWriter(stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    "ufwlog",
		ServiceVersion: version,
		Endpoint:       cfg.Tracing.Endpoint,
		Protocol:       cfg.Tracing.Protocol,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer shutdown(context.Background())
	}

	svc, err := service.NewExportService(cfg, service.WithStdin(stdin))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	log.Info().
		Str("version", version).
		Str("run_id", svc.RunID().String()).
		Str("input", cfg.Input).
		Msg("Starting ufwlog export")

	summary, err := svc.Run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "exported %d records from %d lines to %s\n",
		summary.Stats.Rows, summary.Stats.Lines, summary.Output)
	if summary.Stats.Failed > 0 {
		fmt.Fprintf(stdout, "skipped %d lines that could not be parsed\n", summary.Stats.Failed)
	}
	if summary.UploadKey != "" {
		fmt.Fprintf(stdout, "uploaded to s3://%s/%s\n", cfg.S3.Bucket, summary.UploadKey)
	}
	return 0
}

// printUsage prints the help message.
func printUsage(w io.Writer) {
	fmt.Fprint(w, `ufwlog - Convert UFW firewall logs into CSV or JSON Lines

USAGE:
    ufwlog <COMMAND> [OPTIONS]

COMMANDS:
    export        Convert a UFW log into a table file
    completion    Print a shell completion script (bash, zsh, fish)
    version       Show version
    help          Show this help

Run 'ufwlog export -h' for the export options.
`)
}

func printExportUsage(w io.Writer) {
	fmt.Fprint(w, `USAGE:
    ufwlog export [OPTIONS]

OPTIONS:
    -l, --log <PATH>          UFW log file, directory of rotated logs, or - for stdin
                              (default /var/log/ufw.log)
    -o, --output <FILE>       Output file; the format extension is added when missing.
                              A .gz or .zst suffix compresses the output.
                              (default ./ufwlog.csv)
    -f, --format <FORMAT>     csv or jsonl (default csv)
    --overwrite               Replace an existing output file
    --on-error <POLICY>       fail-fast (default) or skip lines that do not parse
    --state <FILE>            Remember how far each input was read and append
                              only new lines on the next run
    -c, --config <FILE>       YAML configuration file
    --log-level <LEVEL>       debug, info, warn, error or quiet (default info)
    --log-pretty              Human-readable logs instead of JSON

EXAMPLES:
    ufwlog export -l /var/log/ufw.log -o blocked.csv
    ufwlog export -l /var/log -f jsonl -o ufw.jsonl.zst --state /var/lib/ufwlog/state.db
`)
}
