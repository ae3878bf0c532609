package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"crossref/internal/core/ports"
	"crossref/internal/engine/model"

	"github.com/spf13/cobra"
)

var (
	indexJSON bool

	refsPath   string
	refsClass  string
	refsMember string
	refsRel    string
	refsJSON   bool
	refsTSV    bool

	watchMetricsAddr string
)

var indexCmd = &cobra.Command{
	Use:   "index [root]",
	Short: "Index a project and print a summary",
	Long: `Index every Java and HTML file below the project root and print a
summary of the resulting relationship index.

Examples:
  crossref index
  crossref index ./my-project --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "List references to a class or member",
	Long: `Index the project and list the locations related to a class, or to a
member of it, declared in the given file.

Examples:
  crossref refs --path src/shapes/Shape.java --class Shape
  crossref refs -p src/shapes/Square.java -C Square -m area --rel is-invoked-by-qualified
  crossref refs -p src/Outer.java -C Outer.Inner --json`,
	Args: cobra.NoArgs,
	RunE: runRefs,
}

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Keep the index current while files change",
	Long: `Index the project, then watch it and apply every change to the index
until interrupted. When a metrics address is configured, Prometheus metrics
and a health endpoint are served on it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "crossref %s\n", Version)
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "Output the summary as JSON")

	refsCmd.Flags().StringVarP(&refsPath, "path", "p", "", "File declaring the class, relative to the root")
	refsCmd.Flags().StringVarP(&refsClass, "class", "C", "", "Class name; nested classes as Outer.Inner")
	refsCmd.Flags().StringVarP(&refsMember, "member", "m", "", "Method or field name")
	refsCmd.Flags().StringVar(&refsRel, "rel", "", "Relationship to list (default: all)")
	refsCmd.Flags().BoolVar(&refsJSON, "json", false, "Output references as JSON")
	refsCmd.Flags().BoolVar(&refsTSV, "tsv", false, "Output references as tab separated values with a header")
	refsCmd.MarkFlagsMutuallyExclusive("json", "tsv")
	_ = refsCmd.MarkFlagRequired("path")
	_ = refsCmd.MarkFlagRequired("class")

	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")

	rootCmd.AddCommand(indexCmd, refsCmd, watchCmd, versionCmd)
}

// start opens a session and the analysis service. The returned cleanup stops
// both.
func start(cmd *cobra.Command, args []string) (*session, analysis, func(), error) {
	if len(args) == 1 {
		rootFlag = args[0]
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(ctx, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := initializeAnalysis(s)
	if err != nil {
		s.close(context.Background())
		return nil, nil, nil, fmt.Errorf("init app: %w", err)
	}
	cleanup := func() {
		if err := svc.Close(context.Background()); err != nil {
			slog.Warn("index shutdown failed", "error", err)
		}
		s.close(context.Background())
	}
	return s, svc, cleanup, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	s, svc, cleanup, err := start(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.RunIndex(cmd.Context(), ports.IndexRequest{Root: s.root})
	if err != nil {
		return err
	}
	if indexJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	return writeIndexSummary(cmd.OutOrStdout(), s.root, res)
}

func writeIndexSummary(w io.Writer, root string, res ports.IndexResult) error {
	_, err := fmt.Fprintf(w, "Indexed %s\n  java files: %d\n  html files: %d\n  skipped:    %d\n  index:      %s\n  took:       %s\n",
		root, res.JavaFiles, res.HTMLFiles, res.Skipped, res.Statistics, res.Duration.Round(time.Millisecond))
	if err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		if _, err := fmt.Fprintf(w, "  warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}

func runRefs(cmd *cobra.Command, args []string) error {
	rel, err := parseRelationship(refsRel)
	if err != nil {
		return err
	}
	s, svc, cleanup, err := start(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := svc.RunIndex(cmd.Context(), ports.IndexRequest{Root: s.root}); err != nil {
		return err
	}
	refs, err := svc.FindReferences(cmd.Context(), ports.ReferencesRequest{
		Path:         refsPath,
		Class:        refsClass,
		Member:       refsMember,
		Relationship: rel,
	})
	if err != nil {
		return err
	}
	if refsJSON {
		if refs == nil {
			refs = []ports.Reference{}
		}
		return writeJSON(cmd.OutOrStdout(), refs)
	}
	if refsTSV {
		return writeReferencesTSV(cmd.OutOrStdout(), refs)
	}
	return writeReferences(cmd.OutOrStdout(), refs)
}

// parseRelationship accepts any known relationship name; empty means all.
func parseRelationship(raw string) (model.Relationship, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, known := range model.KnownRelationships {
		if strings.EqualFold(raw, known.String()) {
			return known, nil
		}
	}
	names := make([]string, len(model.KnownRelationships))
	for i, known := range model.KnownRelationships {
		names[i] = known.String()
	}
	return "", fmt.Errorf("unknown relationship %q (known: %s)", raw, strings.Join(names, ", "))
}

func writeReferences(w io.Writer, refs []ports.Reference) error {
	if len(refs) == 0 {
		_, err := fmt.Fprintln(w, "no references")
		return err
	}
	for _, ref := range refs {
		line := fmt.Sprintf("%s:%d:%d\t%s", ref.Path, ref.Line, ref.Column, ref.Relationship)
		if ref.Enclosing != "" {
			line += "\t" + ref.Enclosing
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeReferencesTSV(w io.Writer, refs []ports.Reference) error {
	var buf strings.Builder
	buf.WriteString("Relationship\tFile\tLine\tColumn\tOffset\tLength\tEnclosing\n")
	for _, ref := range refs {
		fmt.Fprintf(&buf, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			ref.Relationship, ref.Path, ref.Line, ref.Column, ref.Offset, ref.Length, ref.Enclosing)
	}
	_, err := io.WriteString(w, buf.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, svc, cleanup, err := start(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := s.cfg.Observability.MetricsAddr
	if watchMetricsAddr != "" {
		addr = watchMetricsAddr
	}
	if addr != "" {
		server := NewObservabilityServer(addr, svc.Health())
		if err := server.Start(cmd.Context()); err != nil {
			return fmt.Errorf("start observability server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(ctx); err != nil {
				slog.Warn("observability server shutdown failed", "error", err)
			}
		}()
	}

	return svc.Watch(cmd.Context(), s.root)
}
