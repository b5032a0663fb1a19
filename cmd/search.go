package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/lingo/internal/config"
	"github.com/oakwood-commons/lingo/pkg/logger"
	"github.com/oakwood-commons/lingo/pkg/thesaurus"
)

type searchOptions struct {
	exact       bool
	order       string
	page        int
	perPage     int
	maxEdits    int
	sensitivity int
	lang        string
	output      string
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <term> [file|-]",
		Short: "Find concepts by label, ranked by match quality",
		Long: `Search every concept label for term. Labels containing the term, or within
a few typos of it, match. Unsorted results are ranked: exact before prefix
before substring, preferred labels before alternates, the active language
before the system language. An empty term lists every concept.`,
		Example: `  lingo search river concepts.json
  lingo search --exact "River" concepts.json -o json
  cat concepts.yaml | lingo search rivr - --order alphabetical --page 2`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runSearch(cmd, root, opts, args[0], args[1:])
			if errors.Is(err, errNoInput) {
				return cmd.Help()
			}
			return err
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.exact, "exact", false, "match labels equal to the term only")
	f.StringVar(&opts.order, "order", string(thesaurus.OrderUnsorted), "result order: unsorted|alphabetical|reverse-alphabetical")
	f.IntVar(&opts.page, "page", 1, "page number")
	f.IntVar(&opts.perPage, "per-page", thesaurus.DefaultPerPage, "results per page")
	f.IntVar(&opts.maxEdits, "max-edits", -1, "largest edit distance counted as a match (-1 derives it from the term length)")
	f.IntVar(&opts.sensitivity, "sensitivity", thesaurus.DefaultSensitivity, "typo sensitivity from 0 (most tolerant) to 5 (exact)")
	f.StringVar(&opts.lang, "lang", "", "active label language (default from config)")
	f.StringVarP(&opts.output, "output", "o", "text", "output format: text|json|yaml")
	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts *searchOptions, term string, args []string) error {
	switch opts.output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output %q: valid values are text, json, yaml", opts.output)
	}
	if opts.order != "" && thesaurus.ParseOrder(opts.order) != thesaurus.Order(opts.order) {
		return fmt.Errorf("invalid order %q: valid values are unsorted, alphabetical, reverse-alphabetical", opts.order)
	}

	cfg, err := config.Load(config.Path(root.configFile))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("lang") {
		cfg.Thesaurus.Language = opts.lang
	}
	src, err := resolveInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	doc, err := src.document()
	if err != nil {
		return err
	}

	sensitivity := opts.sensitivity
	if sensitivity == 0 {
		// The library reads zero as its default sensitivity.
		sensitivity = -1
	}
	page, err := thesaurus.Search(doc, term, thesaurus.SearchOptions{
		Language:        cfg.Thesaurus.Language,
		SystemLanguage:  cfg.Thesaurus.SystemLanguage,
		Order:           thesaurus.Order(opts.order),
		Exact:           opts.exact,
		MaxEditDistance: opts.maxEdits,
		Sensitivity:     sensitivity,
		Page:            opts.page,
		PerPage:         opts.perPage,
	})
	if err != nil {
		return fmt.Errorf("search %q: %w", term, err)
	}
	logger.FromContext(cmd.Context()).V(1).Info("search", "term", term, "results", page.TotalResults, "input", src.name())
	return writeSearch(cmd.OutOrStdout(), page, opts.output)
}

func writeSearch(w io.Writer, page thesaurus.SearchPage, output string) error {
	switch output {
	case "json":
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(page)
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	for _, hit := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\n", hit.ID, hit.Label, strings.Join(hit.Parents, " > "))
	}
	_, err := fmt.Fprintf(w, "page %d of %d, %d results\n", page.CurrentPage, page.TotalPages, page.TotalResults)
	return err
}
