package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/memory"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/querysql"
	"github.com/roach88/relfilter/internal/schema"
	"github.com/roach88/relfilter/internal/store"
	"github.com/roach88/relfilter/internal/value"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every case matched on both backends.
	Pass bool `json:"pass"`

	Cases []CaseResult `json:"cases"`

	// Errors holds one message per mismatch.
	Errors []string `json:"errors,omitempty"`
}

// CaseResult records what each backend returned for one case.
type CaseResult struct {
	Name string `json:"name"`

	// Memory and SQL are the primary values each backend returned.
	Memory []any `json:"memory"`
	SQL    []any `json:"sql"`

	// Query and Args are the compiled SQLite query, without the store's
	// key projection.
	Query string `json:"query,omitempty"`
	Args  []any  `json:"args,omitempty"`

	// MemoryError and SQLError are the error codes raised, if any.
	MemoryError string `json:"memory_error,omitempty"`
	SQLError    string `json:"sql_error,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Cases: []CaseResult{}, Errors: []string{}}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Harness evaluates the cases of one scenario against the in-memory backend
// and an SQLite store loaded with the same fixtures.
type Harness struct {
	model    *meta.Model
	graph    *Graph
	store    *store.Store
	registry *filter.Registry
	logger   *slog.Logger
}

// Run executes a scenario. Each run uses a fresh in-memory database.
//
// The returned error covers setup failures (model, fixtures, database);
// case mismatches are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	model, err := schema.Load(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	graph, err := BuildGraph(model, scenario.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("failed to build fixtures: %w", err)
	}

	st, err := store.Open(ctx, ":memory:", model)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.Insert(ctx, graph.All()...); err != nil {
		return nil, fmt.Errorf("failed to insert fixtures: %w", err)
	}

	h := &Harness{
		model:    model,
		graph:    graph,
		store:    st,
		registry: filter.NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		cr, mismatches := h.runCase(ctx, scenario, c)
		result.Cases = append(result.Cases, cr)
		for _, msg := range mismatches {
			result.AddError(fmt.Sprintf("case %s: %s", c.Name, msg))
		}
	}
	return result, nil
}

func (h *Harness) runCase(ctx context.Context, s *Scenario, c Case) (CaseResult, []string) {
	cr := CaseResult{Name: c.Name}
	typ := c.EntityType(s)

	call, err := c.Filter()
	if err != nil {
		return cr, []string{fmt.Sprintf("invalid where: %v", err)}
	}
	orders, err := c.Orders()
	if err != nil {
		return cr, []string{fmt.Sprintf("invalid order: %v", err)}
	}

	var memErr, sqlErr error
	cr.Memory, memErr = h.memoryIDs(typ, call, orders)
	cr.SQL, sqlErr = h.store.Find(ctx, typ, h.registry, call, orders)
	cr.MemoryError = ErrorCode(memErr)
	cr.SQLError = ErrorCode(sqlErr)
	if sqlErr == nil {
		cr.Query, cr.Args, _ = h.compile(typ, call, orders)
	}

	if c.Error != "" {
		var out []string
		if cr.MemoryError != c.Error {
			out = append(out, fmt.Sprintf("memory: expected error %s, got %v", c.Error, memErr))
		}
		if cr.SQLError != c.Error {
			out = append(out, fmt.Sprintf("sql: expected error %s, got %v", c.Error, sqlErr))
		}
		return cr, out
	}

	var out []string
	if memErr != nil {
		out = append(out, fmt.Sprintf("memory: %v", memErr))
	}
	if sqlErr != nil {
		out = append(out, fmt.Sprintf("sql: %v", sqlErr))
	}
	if len(out) > 0 {
		return cr, out
	}

	expect := make([]any, len(c.Expect))
	for i, id := range c.Expect {
		expect[i] = value.Scalar(id)
	}
	ordered := len(c.Order) > 0
	if !sameIDs(cr.Memory, expect, ordered) {
		out = append(out, fmt.Sprintf("memory returned %v, expected %v", cr.Memory, expect))
	}
	if !sameIDs(cr.SQL, expect, ordered) {
		out = append(out, fmt.Sprintf("sql returned %v, expected %v", cr.SQL, expect))
	}
	return cr, out
}

func (h *Harness) memoryIDs(typ string, call *filter.Call, orders []filter.Order) ([]any, error) {
	mh, err := memory.NewHelper(h.model, typ, h.registry, memory.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}
	out, err := mh.Apply(h.graph.Entities(typ), call, orders)
	if err != nil {
		return nil, err
	}
	ids := make([]any, 0, len(out))
	for _, e := range out {
		id, _ := entity.PrimaryValue(e)
		ids = append(ids, value.Scalar(id))
	}
	return ids, nil
}

func (h *Harness) compile(typ string, call *filter.Call, orders []filter.Order) (string, []any, error) {
	qh, err := querysql.NewHelper(h.model, typ, h.registry, querysql.WithLogger(h.logger))
	if err != nil {
		return "", nil, err
	}
	b, err := qh.Build(filter.DialectSQLite, call, orders)
	if err != nil {
		return "", nil, err
	}
	return b.ToSql()
}

// ErrorCode returns the code of a filter or lookup error, or "" when err
// is nil or carries no code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var fe *filter.Error
	if errors.As(err, &fe) {
		return string(fe.Code)
	}
	var le *meta.LookupError
	if errors.As(err, &le) {
		return string(le.Code)
	}
	return "ERROR"
}

// sameIDs compares primary value lists, in order or as sets.
func sameIDs(got, want []any, ordered bool) bool {
	if len(got) != len(want) {
		return false
	}
	if !ordered {
		got = slices.Clone(got)
		want = slices.Clone(want)
		slices.SortFunc(got, value.SortCompare)
		slices.SortFunc(want, value.SortCompare)
	}
	for i := range got {
		if !value.Equal(got[i], want[i]) {
			return false
		}
	}
	return true
}
