// lazytext concatenates files, standard input and literal text through a
// lazily assembled sequence and writes the result to standard output.
//
//	lazytext [flags] <file|-|=literal>...
//
// Files are opened only when the output reaches them. With --parallel all
// inputs are read concurrently and joined in argument order.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-lazytext/pkg/lazytext"
	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/iox"
	"github.com/benjaminschreck/go-lazytext/pkg/lazytext/quota"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "lazytext: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	parallel   bool
	workers    int
	quota      int64
	onError    string
	compress   string
	digest     bool
	configPath string
	logLevel   string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	var opts options

	flagSet := pflag.NewFlagSet("lazytext", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVar(&opts.parallel, "parallel", false, "read all inputs concurrently")
	flagSet.IntVar(&opts.workers, "workers", 0, "concurrent readers with --parallel (default from config)")
	flagSet.Int64Var(&opts.quota, "quota", 0, "refuse inputs whose expected sizes add up to more than this many bytes (0 disables)")
	flagSet.StringVar(&opts.onError, "on-error", "", "read failure outcome: escalate, truncate, discard, message, trace")
	flagSet.StringVar(&opts.compress, "compress", "none", "output compression: none, zstd, lz4")
	flagSet.BoolVar(&opts.digest, "digest", false, "print the BLAKE3 digest of the output instead of the output")
	flagSet.StringVar(&opts.configPath, "config", "", "YAML config file")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lazytext [flags] <file|-|=literal>...\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}
	return &opts, flagSet.Args(), nil
}

// loadConfig layers the config file, or the environment when there is no
// file, under the flags.
func loadConfig(opts *options) (*lazytext.Config, error) {
	var config *lazytext.Config
	if opts.configPath != "" {
		loaded, err := lazytext.LoadConfigFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	} else {
		config = lazytext.ConfigFromEnvironment()
	}

	if opts.logLevel != "" {
		config.LogLevel = opts.logLevel
	}
	if opts.workers > 0 {
		config.ScatterWorkers = opts.workers
	}
	if opts.onError != "" {
		config.ErrorOutcome = opts.onError
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, inputs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "lazytext version %s\n", version)
		return nil
	}
	if len(inputs) == 0 {
		return errors.New("no inputs; usage: lazytext [flags] <file|-|=literal>...")
	}

	codec, err := iox.ParseCodec(opts.compress)
	if err != nil {
		return err
	}

	config, err := loadConfig(opts)
	if err != nil {
		return err
	}
	lazytext.SetLogger(lazytext.NewLogger(stderr, lazytext.ParseLogLevel(config.LogLevel)))

	engine := lazytext.NewWithOptions(lazytext.WithConfig(config))
	defer engine.Close()

	var scope lazytext.Scope
	if opts.quota > 0 {
		scope = quota.NewLimit(opts.quota)
	}
	seq, err := assemble(engine, inputs, stdin, opts.parallel, scope)
	if err != nil {
		return err
	}

	if opts.digest {
		sum, err := lazytext.Digest(seq)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, sum.String())
		return nil
	}
	return emit(seq, stdout, codec)
}

// assemble builds one sequence over the inputs. Files are stat'ed up front
// so their sizes can serve as expected lengths; nothing is read yet. A
// non-nil scope is attached to every input holder, so each one reports
// its real length when it is read, whether or not the sequence itself is
// ever materialized.
func assemble(engine *lazytext.Engine, inputs []string, stdin io.Reader, parallel bool, scope lazytext.Scope) (*lazytext.Sequence, error) {
	sizes := make([]int64, len(inputs))
	var g errgroup.Group
	for i, input := range inputs {
		if input == "-" || isLiteral(input) {
			continue
		}
		i, input := i, input
		g.Go(func() error {
			info, err := os.Stat(input)
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				sizes[i] = info.Size()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var seq *lazytext.Sequence
	var err error
	if parallel {
		seq, err = engine.ConcurrentSequence()
	} else {
		seq, err = engine.Sequence()
	}
	if err != nil {
		return nil, err
	}

	logger := lazytext.GetLogger()
	for i, input := range inputs {
		var h lazytext.Holder
		switch {
		case isLiteral(input):
			h, err = engine.Literal(input[1:])
		case input == "-":
			h, err = engine.Stream(lazytext.Bounds{}, iox.FromReader(stdin))
		default:
			h, err = engine.Stream(lazytext.Estimate(sizes[i]), openFile(input))
		}
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		if scope != nil {
			if err := h.Attach(scope); err != nil {
				return nil, fmt.Errorf("input %s: %w", input, err)
			}
		}
		if err := seq.Append(h); err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		if logger.IsDebugMode() {
			logger.WithFields(lazytext.Fields{
				"input":    input,
				"expected": h.ExpectedLength(),
			}).Debug("Queued input")
		}
	}
	return seq, nil
}

func isLiteral(input string) bool {
	return len(input) > 0 && input[0] == '='
}

func openFile(path string) iox.Opener {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

func emit(seq *lazytext.Sequence, stdout io.Writer, codec iox.Codec) error {
	buffered := bufio.NewWriter(stdout)
	w, err := iox.NewCompressor(buffered, codec)
	if err != nil {
		return err
	}
	if _, err := seq.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return buffered.Flush()
}
