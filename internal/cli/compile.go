package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/querysql"
	"github.com/roach88/relfilter/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Entity  string   // entity type to select
	Filter  string   // condition map, inline YAML or @file
	Sort    []string // path[:desc]
	Dialect string   // overrides the configured dialect
	Execute bool     // run against the configured SQLite database
}

// CompileResult is the compiled query, plus the matching keys with --execute.
type CompileResult struct {
	Entity  string         `json:"entity"`
	Dialect filter.Dialect `json:"dialect"`
	SQL     string         `json:"sql"`
	Args    []any          `json:"args"`
	Joins   int            `json:"joins"`
	IDs     []any          `json:"ids,omitempty"`
}

// RenderText implements textRenderer.
func (r *CompileResult) RenderText(w io.Writer) {
	fmt.Fprintln(w, r.SQL)
	fmt.Fprintf(w, "args: %v\n", r.Args)
	if r.IDs != nil {
		fmt.Fprintf(w, "\n%d %s(s) matched\n", len(r.IDs), r.Entity)
		for _, id := range r.IDs {
			fmt.Fprintf(w, "  %v\n", id)
		}
	}
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [schema]",
		Short: "Compile a filter to SQL",
		Long: `Compile a condition map over an entity type to a SELECT statement.

The schema is a CUE directory, a .cue file or a .yaml model; it defaults to
the configured schema. Conditions are YAML (or JSON), inline or @file:

  relfilter compile ./schema --entity Book \
    --filter '{author->lastName: Doe, publishedAt>=: 2020-01-01}' \
    --sort title --sort price:desc

With --execute the query runs against the configured SQLite database and the
primary keys of the matching rows are printed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runCompile(cmd.Context(), opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "entity type to select (required)")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "condition map as YAML, or @file")
	cmd.Flags().StringArrayVarP(&opts.Sort, "sort", "s", nil, "sort by property path, path[:asc|desc] (repeatable)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect (sqlite|postgres|mysql)")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "run the query against the configured database")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, schemaPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	settings := opts.settings()

	dialect := settings.Dialect
	if opts.Dialect != "" {
		settings.Dialect = filter.Dialect(opts.Dialect)
		if err := settings.Validate(); err != nil {
			return formatter.Fail(&inputError{flag: "dialect", err: err})
		}
		dialect = settings.Dialect
	}
	if opts.Execute && dialect != filter.DialectSQLite {
		return formatter.Fail(&inputError{flag: "execute", err: fmt.Errorf("only the sqlite dialect can be executed, got %s", dialect)})
	}

	model, err := loadModel(opts.RootOptions, schemaPath)
	if err != nil {
		return formatter.Fail(err)
	}
	call, err := parseFilter(opts.Filter)
	if err != nil {
		return formatter.Fail(err)
	}
	orders, err := parseSort(opts.Sort)
	if err != nil {
		return formatter.Fail(err)
	}

	logger := opts.logger()
	h, err := querysql.NewHelper(model, opts.Entity, nil, querysql.WithLogger(logger))
	if err != nil {
		return formatter.Fail(err)
	}
	b, err := h.Build(dialect, call, orders)
	if err != nil {
		return formatter.Fail(err)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Compiled %s with %d join(s)", opts.Entity, b.Joins())

	result := &CompileResult{
		Entity:  opts.Entity,
		Dialect: dialect,
		SQL:     query,
		Args:    args,
		Joins:   b.Joins(),
	}
	if result.Args == nil {
		result.Args = []any{}
	}

	if opts.Execute {
		ids, err := execute(ctx, opts, settings.Database, model, call, orders)
		if err != nil {
			return formatter.Fail(err)
		}
		result.IDs = ids
	}

	return formatter.Success(result)
}

func execute(ctx context.Context, opts *CompileOptions, database string, model *meta.Model, call *filter.Call, orders []filter.Order) ([]any, error) {
	opts.logger().Debug("executing query", "database", database, "entity", opts.Entity)
	st, err := store.Open(ctx, database, model)
	if err != nil {
		return nil, &execError{err: err}
	}
	defer st.Close()
	ids, err := st.Find(ctx, opts.Entity, nil, call, orders)
	if err != nil {
		return nil, &execError{err: err}
	}
	return ids, nil
}
