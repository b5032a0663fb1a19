package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/lingo/internal/config"
	"github.com/oakwood-commons/lingo/internal/formatter"
	"github.com/oakwood-commons/lingo/internal/textexpr"
	"github.com/oakwood-commons/lingo/pkg/logger"
	"github.com/oakwood-commons/lingo/pkg/settings"
	"github.com/oakwood-commons/lingo/pkg/thesaurus"
	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

// errNoInput is returned when there is no file argument and stdin is a
// terminal; the root command prints its help instead.
var errNoInput = errors.New("no input provided")

// rootOptions are the flag values of one invocation.
type rootOptions struct {
	filter      string
	debounceMs  int
	renderCap   int
	lang        string
	focus       string
	textExpr    string
	allLabels   bool
	output      string
	collapse    bool
	showKeys    bool
	maxDepth    int
	interactive bool
	watch       bool
	theme       string
	logFile     string
	configFile  string
	debug       bool
	noColor     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   settings.CliBinaryName + " [file|-]",
		Short: "Filter and browse thesaurus concept trees",
		Long: `lingo loads a thesaurus concept tree (JSON, YAML or TOML; the
{"schemes": [...]} envelope or a bare list of schemes) and narrows it to the
concepts whose labels contain a query, keeping their ancestors.

When more nodes match than the render cap allows, the filter gives up and
shows the whole tree instead.`,
		Example: `  lingo thesaurus.json -f river
  lingo thesaurus.json -f river -o json
  cat thesaurus.yaml | lingo -f "water body" --all-labels
  lingo thesaurus.json -i -w`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logger.InfoLevel
			if opts.debug {
				level = logger.DebugLevel
			}
			run := settings.NewCliParams()
			run.MinLogLevel = level
			run.NoColor = opts.noColor
			run.Interactive = opts.interactive
			run.Watch = opts.watch
			run.LogFile = opts.logFile
			run.ConfigPath = config.Path(opts.configFile)

			lgr := logger.WithValues(logger.Get(level), "command", cmd.Name())
			ctx := logger.WithLogger(cmd.Context(), lgr)
			cmd.SetContext(settings.IntoContext(ctx, run))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runRoot(cmd, opts, args)
			if errors.Is(err, errNoInput) {
				return cmd.Help()
			}
			return err
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	f := cmd.Flags()
	f.StringVarP(&opts.filter, "filter", "f", "", "filter text; matching concepts are shown with their ancestors")
	f.IntVar(&opts.debounceMs, "debounce-ms", 0, "delay before typed filter text is applied (default from config)")
	f.IntVar(&opts.renderCap, "render-cap", 0, "give up filtering when more nodes match (default from config)")
	f.StringVar(&opts.lang, "lang", "", "preferred label language (default from config)")
	f.StringVar(&opts.focus, "focus", "", "show only the path to this concept id and its subtree")
	f.StringVar(&opts.textExpr, "text-expr", "", "CEL expression producing the text matched against the filter, e.g. 'node.label + \" \" + node.key'")
	f.BoolVar(&opts.allLabels, "all-labels", false, "match alternative and hidden labels too")
	f.StringVarP(&opts.output, "output", "o", formatter.OutputTree, "output format: tree|json|yaml")
	f.BoolVar(&opts.collapse, "collapse", false, "tree output shows only the nodes the filter expanded")
	f.BoolVar(&opts.showKeys, "show-keys", false, "show concept ids next to labels")
	f.IntVar(&opts.maxDepth, "depth", 0, "limit tree output depth (0 = unlimited)")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse the tree interactively")
	f.BoolVarP(&opts.watch, "watch", "w", false, "reload the tree when the input file changes")
	f.StringVar(&opts.theme, "theme", "", "interactive theme (default from config)")
	f.StringVar(&opts.logFile, "log-file", "", "write interactive-mode logs to this file (default from config)")

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "path to a YAML config file (default $"+settings.ConfigEnvVar+")")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable color output")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	return cmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	if err := formatter.ValidateOutput(opts.output); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log := *logger.FromContext(ctx)

	src, err := resolveInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if opts.watch && src.path == "" {
		return errors.New("--watch needs a file argument")
	}

	tree, err := src.load(cfg, opts.focus)
	if err != nil {
		return err
	}
	log.V(1).Info("loaded thesaurus", "source", src.name(), "nodes", thesaurus.Count(tree))

	if opts.interactive {
		return runInteractive(ctx, opts, cfg, src, tree)
	}

	textFn, err := searchableText(cfg, log)
	if err != nil {
		return err
	}
	filterCfg := treefilter.Config{
		DebounceMs:     cfg.Filter.DebounceMs,
		RenderCap:      cfg.Filter.RenderCap,
		SearchableText: textFn,
	}
	p := printer{
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		opts:    opts,
		cfg:     cfg,
		colored: !opts.noColor && stdoutIsTerminal(),
	}
	if opts.watch {
		return runWatch(ctx, src, cfg, opts, filterCfg, tree, p, log)
	}

	res, err := runOnce(ctx, tree, filterCfg, opts.filter, log)
	if err != nil {
		return err
	}
	return p.print(res)
}

// loadConfig merges the config file with the flags set on the command line.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(config.Path(opts.configFile))
	if err != nil {
		return cfg, err
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "debounce-ms":
			cfg.Filter.DebounceMs = opts.debounceMs
		case "render-cap":
			cfg.Filter.RenderCap = opts.renderCap
		case "text-expr":
			cfg.Filter.SearchableText = opts.textExpr
		case "all-labels":
			cfg.Filter.MatchAllLabels = opts.allLabels
		case "lang":
			cfg.Thesaurus.Language = opts.lang
		case "theme":
			cfg.UI.Theme = opts.theme
		case "log-file":
			cfg.Log.File = opts.logFile
		}
	})
	if opts.watch {
		cfg.Watch.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// searchableText picks the text the filter matches: a CEL expression, every
// label, or the displayed label.
func searchableText(cfg config.Config, log logr.Logger) (treefilter.TextFunc, error) {
	if cfg.Filter.SearchableText != "" {
		expr, err := textexpr.Compile(cfg.Filter.SearchableText, textexpr.WithLogger(log.WithName("textexpr")))
		if err != nil {
			return nil, err
		}
		return expr.Text, nil
	}
	if cfg.Filter.MatchAllLabels {
		return thesaurus.AllLabelsText, nil
	}
	return thesaurus.SearchableText, nil
}

// input is where the thesaurus comes from: a file path, or a reader when
// path is empty.
type input struct {
	path   string
	reader io.Reader
}

func resolveInput(args []string, stdin io.Reader) (input, error) {
	if len(args) == 1 && args[0] != "-" {
		return input{path: args[0]}, nil
	}
	if len(args) == 0 && !stdinIsPiped() {
		return input{}, errNoInput
	}
	return input{reader: stdin}, nil
}

func (in input) name() string {
	if in.path == "" {
		return "stdin"
	}
	return in.path
}

func (in input) document() (thesaurus.Document, error) {
	if in.path != "" {
		return thesaurus.LoadFile(in.path)
	}
	data, err := io.ReadAll(in.reader)
	if err != nil {
		return thesaurus.Document{}, fmt.Errorf("read stdin: %w", err)
	}
	return thesaurus.Decode(data)
}

func (in input) load(cfg config.Config, focus string) ([]treefilter.Node, error) {
	doc, err := in.document()
	if err != nil {
		return nil, err
	}
	return thesaurus.TreeFromSchemes(doc.Schemes, thesaurus.TreeOptions{
		Language:       cfg.Thesaurus.Language,
		SystemLanguage: cfg.Thesaurus.SystemLanguage,
		Focus:          focus,
	}), nil
}
