package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Entities []EntitySummary `json:"entities,omitempty"`
	Errors   []CLIError      `json:"errors,omitempty"`
}

// EntitySummary describes one entity of a valid model.
type EntitySummary struct {
	Name          string   `json:"name"`
	Table         string   `json:"table"`
	PrimaryKey    []string `json:"primary_key"`
	Columns       []string `json:"columns"`
	Relationships []string `json:"relationships,omitempty"`
}

// RenderText implements textRenderer.
func (r *ValidationResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "✓ Model valid: %d entit(ies)\n\n", len(r.Entities))
	for _, e := range r.Entities {
		fmt.Fprintf(w, "  %s (table %s, key %s)\n", e.Name, e.Table, strings.Join(e.PrimaryKey, ", "))
		for _, rel := range e.Relationships {
			fmt.Fprintf(w, "    %s\n", rel)
		}
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema]",
		Short: "Validate an entity model",
		Long: `Validate an entity model without compiling any filter.

Checks the model against the definition schema, resolves relationship
targets and inverse properties, and prints the table each entity maps to.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	model, err := loadModel(opts, path)
	if err != nil {
		var le *schema.LoadError
		if errors.As(err, &le) {
			// Unreadable input is a command error, not a validation failure.
			return formatter.Fail(err)
		}
		return outputValidationErrors(formatter, []CLIError{validationError(err)})
	}

	result := &ValidationResult{Valid: true}
	for _, typ := range model.Types() {
		formatter.VerboseLog("Validated entity: %s", typ)
		mapper, err := model.Mapper(typ)
		if err != nil {
			return formatter.Fail(err)
		}
		result.Entities = append(result.Entities, summarize(mapper))
	}
	return formatter.Success(result)
}

func summarize(mapper *meta.Mapper) EntitySummary {
	em := mapper.Entity()
	s := EntitySummary{
		Name:       em.Type,
		Table:      mapper.Table,
		PrimaryKey: mapper.Reflection.StoragePrimaryKey(),
		Columns:    []string{},
	}
	for _, p := range em.Properties() {
		if rel := p.Relationship; rel != nil {
			s.Relationships = append(s.Relationships, fmt.Sprintf("%s: %s %s", p.Name, rel.Cardinality, rel.Target))
			if !p.HasForeignKey() {
				continue
			}
		}
		if p.IsVirtual {
			continue
		}
		s.Columns = append(s.Columns, mapper.Reflection.ConvertEntityToStorageKey(p.Name))
	}
	return s
}

func validationError(err error) CLIError {
	out := CLIError{Code: errorCode(err), Message: err.Error()}
	var ce *schema.CompileError
	if errors.As(err, &ce) && ce.Pos.IsValid() {
		out.Message = ce.Message
		out.Details = map[string]any{
			"field": ce.Field,
			"file":  ce.Pos.Filename(),
			"line":  ce.Pos.Line(),
		}
	}
	return out
}

// outputValidationErrors outputs validation errors. Validation failures
// exit with ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, errs []CLIError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &errs[0],
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range errs {
		if d, ok := e.Details.(map[string]any); ok {
			fmt.Fprintf(formatter.Writer, "%v:%v\n", d["file"], d["line"])
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
