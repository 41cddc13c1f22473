package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/scraper-node/internal/cli"
	"github.com/JakeFAU/scraper-node/internal/config"
	"github.com/JakeFAU/scraper-node/internal/jobfile"
	"github.com/JakeFAU/scraper-node/internal/logging"
	"github.com/JakeFAU/scraper-node/internal/params"
)

// SettingsEnv names the environment variable pointing at an optional runtime
// settings file.
const SettingsEnv = "SCRAPER_CONFIG"

// RunFunc is the caller's collection loop. ctx is cancelled on orchestrator
// or operator cancellation; long waits must observe it.
type RunFunc func(ctx context.Context, job *Job) error

// Node describes a scraper to the orchestrator.
type Node struct {
	// Name identifies the scraper in log file names. Defaults to the
	// executable name without extension.
	Name        string
	Description string
	// Columns is the static schema. Ignored when ColumnsFunc is set.
	Columns     []Column
	ColumnsFunc ColumnsFunc
	// Parameters are the default parameters advertised in schema export.
	Parameters       map[string]string
	ResetURLSemantic bool
	// BulkSize is the number of records per batch file (default 10).
	BulkSize int
	// Stdout receives usage text. Defaults to os.Stdout.
	Stdout io.Writer

	settings *config.Settings
}

// Main runs the node against os.Args and exits the process.
func (n *Node) Main(run RunFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	outcome, err := n.Execute(ctx, os.Args[1:], run)
	stop()
	if err == nil {
		os.Exit(outcome.ExitCode())
	}

	logger, lerr := n.bootstrapLogger()
	if lerr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", n.name(), err)
	} else {
		logger.Error("Scraper setup failed", zap.String("scraper", n.name()), zap.Error(err))
		_ = logger.Sync()
	}
	if errors.Is(err, cli.ErrUsage) {
		fmt.Fprint(os.Stderr, cli.NewParser(n.name()).Usage())
		os.Exit(2)
	}
	os.Exit(1)
}

// Execute negotiates the mode from argv (without the program name) and runs
// it. A non-nil error means setup failed before any job became active.
// Otherwise the Outcome tells how the job ended; export modes report
// ReasonCompleted.
func (n *Node) Execute(ctx context.Context, argv []string, run RunFunc) (Outcome, error) {
	parser := cli.NewParser(n.name())
	args, err := parser.Parse(argv)
	if err != nil {
		return Outcome{}, err
	}
	if args.Mode == cli.ModeUsage {
		if _, err := io.WriteString(n.stdout(), parser.Usage()); err != nil {
			return Outcome{}, fmt.Errorf("write usage: %w", err)
		}
		return Outcome{Reason: ReasonCompleted}, nil
	}

	settings, err := n.loadSettings()
	if err != nil {
		return Outcome{}, err
	}

	f, err := jobfile.Open(args.File)
	if err != nil {
		return Outcome{}, err
	}
	raw, err := jobfile.ReadAll(f)
	if err != nil {
		_ = f.Close()
		return Outcome{}, err
	}

	switch args.Mode {
	case cli.ModeDescribe:
		err = jobfile.Rewrite(f, []byte(n.Description))
	case cli.ModeFeatures:
		err = n.exportFeatures(f, raw)
	default:
		var cfg jobfile.Config
		cfg, err = jobfile.Parse(raw)
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close job file: %w", cerr)
		}
		if err != nil {
			return Outcome{}, err
		}
		return n.runJob(ctx, cfg, settings, run)
	}

	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close job file: %w", cerr)
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Reason: ReasonCompleted}, nil
}

// exportFeatures writes the schema. A parameter-dependent schema reads the
// params from raw, the content captured before the file is truncated.
func (n *Node) exportFeatures(f *os.File, raw []byte) error {
	columns := n.Columns
	if n.ColumnsFunc != nil {
		jobParams, err := jobfile.ParseParams(raw)
		if err != nil {
			return err
		}
		if columns, err = n.ColumnsFunc(jobParams); err != nil {
			return fmt.Errorf("compute columns: %w", err)
		}
	}

	out := make([]jobfile.Column, 0, len(columns))
	for _, c := range columns {
		if !c.Type.Valid() {
			return fmt.Errorf("column %q: invalid type %v", c.Name, c.Type)
		}
		out = append(out, jobfile.Column{Name: c.Name, Type: c.Type.Tag()})
	}
	encoded, err := params.Encode(n.Parameters)
	if err != nil {
		return err
	}
	return jobfile.WriteFeatures(f, jobfile.Features{
		Columns:          out,
		Params:           encoded,
		ResetURLSemantic: n.ResetURLSemantic,
	})
}

func (n *Node) loadSettings() (config.Settings, error) {
	if n.settings != nil {
		return *n.settings, nil
	}
	s, err := config.Load(os.Getenv(SettingsEnv))
	if err != nil {
		return config.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// bootstrapLogger builds the stderr logger used when no run log exists yet.
// Settings that fail to load fall back to the defaults.
func (n *Node) bootstrapLogger() (*zap.Logger, error) {
	s, err := n.loadSettings()
	if err != nil {
		s = config.Default()
	}
	return logging.New(s.LogDevelopment)
}

func (n *Node) name() string {
	if n.Name != "" {
		return n.Name
	}
	base := filepath.Base(os.Args[0])
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (n *Node) stdout() io.Writer {
	if n.Stdout != nil {
		return n.Stdout
	}
	return os.Stdout
}
