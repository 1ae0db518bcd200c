// Package demo replays the reference catalog session against a product store.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	perrors "github.com/abgdnv/gocatalog/internal/catalog/errors"
	"github.com/abgdnv/gocatalog/internal/catalog/store"
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// StepResult records what a single demo step produced.
type StepResult struct {
	Step     string          `json:"step"`
	Outcome  string          `json:"outcome"`
	Product  *store.Product  `json:"product,omitempty"`
	Products []store.Product `json:"products,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Report is the ordered list of step results of a run.
type Report struct {
	Steps []StepResult `json:"steps"`
}

// Rejected returns the number of steps the store refused.
func (r Report) Rejected() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == OutcomeRejected {
			n++
		}
	}
	return n
}

// Final returns the catalog as seen by the last listing step.
func (r Report) Final() []store.Product {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if r.Steps[i].Products != nil {
			return r.Steps[i].Products
		}
	}
	return nil
}

// Seed is the set of products the demo starts with.
var Seed = []store.Product{
	{
		Title:       "Producto 1",
		Description: "Descripción del producto 1",
		Price:       10,
		Thumbnail:   "thumbnail1.jpg",
		Code:        "ABC123",
		Stock:       20,
	},
	{
		Title:       "Producto 2",
		Description: "Descripción del producto 2",
		Price:       15,
		Thumbnail:   "thumbnail2.jpg",
		Code:        "DEF456",
		Stock:       15,
	},
	{
		Title:       "Producto 3",
		Description: "Descripción del producto 3",
		Price:       20,
		Thumbnail:   "thumbnail3.jpg",
		Code:        "GHI789",
		Stock:       25,
	},
}

type runner struct {
	store  store.ProductStore
	logger *slog.Logger
	report Report
}

// Run adds the seed products, tries to add a duplicate code, lists, looks up ids 2 and 4,
// replaces id 2 with a title and price only, lists, deletes id 3 and lists again.
// Rejections (duplicate code, validation, unknown id) are logged at WARN and recorded.
// Any other error stops the run and is returned with the partial report.
func Run(ctx context.Context, s store.ProductStore, logger *slog.Logger) (Report, error) {
	r := &runner{store: s, logger: logger.With("component", "demo")}

	for _, p := range Seed {
		if err := r.add(ctx, p); err != nil {
			return r.report, err
		}
	}
	duplicate := Seed[0]
	duplicate.Title = "Producto repetido"
	if err := r.add(ctx, duplicate); err != nil {
		return r.report, err
	}

	steps := []func(context.Context) error{
		r.list,
		func(ctx context.Context) error { return r.get(ctx, 2) },
		func(ctx context.Context) error { return r.get(ctx, 4) },
		func(ctx context.Context) error {
			return r.update(ctx, 2, store.Product{Title: "Nuevo Producto 2", Price: 25})
		},
		r.list,
		func(ctx context.Context) error { return r.delete(ctx, 3) },
		r.list,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return r.report, err
		}
	}

	r.logger.InfoContext(ctx, "Demo finished", "steps", len(r.report.Steps), "rejected", r.report.Rejected())
	return r.report, nil
}

func (r *runner) add(ctx context.Context, p store.Product) error {
	created, err := r.store.AddProduct(ctx, p)
	return r.record(ctx, StepResult{Step: "add " + p.Code, Product: created}, err)
}

func (r *runner) list(ctx context.Context) error {
	products, err := r.store.GetProducts(ctx)
	return r.record(ctx, StepResult{Step: "list", Products: products}, err)
}

func (r *runner) get(ctx context.Context, id int64) error {
	found, err := r.store.GetProductByID(ctx, id)
	return r.record(ctx, StepResult{Step: fmt.Sprintf("get %d", id), Product: found}, err)
}

func (r *runner) update(ctx context.Context, id int64, replacement store.Product) error {
	updated, err := r.store.UpdateProduct(ctx, id, replacement)
	return r.record(ctx, StepResult{Step: fmt.Sprintf("update %d", id), Product: updated}, err)
}

func (r *runner) delete(ctx context.Context, id int64) error {
	err := r.store.DeleteProduct(ctx, id)
	return r.record(ctx, StepResult{Step: fmt.Sprintf("delete %d", id)}, err)
}

// record appends the step and decides whether err ends the run.
func (r *runner) record(ctx context.Context, result StepResult, err error) error {
	switch {
	case err == nil:
		result.Outcome = OutcomeOK
		r.logger.InfoContext(ctx, "Step completed", "step", result.Step)
	case isRejection(err):
		result.Outcome = OutcomeRejected
		result.Error = err.Error()
		result.Product = nil
		r.logger.WarnContext(ctx, "Step rejected", "step", result.Step, "error", err)
	default:
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		r.report.Steps = append(r.report.Steps, result)
		r.logger.ErrorContext(ctx, "Step failed", "step", result.Step, "error", err)
		return fmt.Errorf("demo step %q: %w", result.Step, err)
	}
	r.report.Steps = append(r.report.Steps, result)
	return nil
}

func isRejection(err error) bool {
	return errors.Is(err, perrors.ErrDuplicateCode) ||
		errors.Is(err, perrors.ErrValidation) ||
		errors.Is(err, perrors.ErrProductNotFound)
}
