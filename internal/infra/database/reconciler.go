package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ProbeOutcome classifies a probe read against the expected columns.
type ProbeOutcome int

const (
	ProbeOK ProbeOutcome = iota
	ProbeSchemaIncompatible
	ProbeError
)

func (o ProbeOutcome) String() string {
	switch o {
	case ProbeOK:
		return "ok"
	case ProbeSchemaIncompatible:
		return "schema_incompatible"
	default:
		return "error"
	}
}

// ReconcileResult reports one reconciliation pass. Failed holds the columns whose
// ADD COLUMN failed for a reason other than the column already existing; they are
// retried on the next pass.
type ReconcileResult struct {
	TableAbsent    bool
	Before         []string
	Added          []string
	AlreadyPresent []string
	Failed         map[string]error
	Err            error
}

func (r ReconcileResult) Complete() bool {
	return r.Err == nil && !r.TableAbsent && len(r.Failed) == 0
}

// Reconciler keeps a live table a superset of its Schema by adding missing
// columns. It never drops, renames or rewrites anything, which is what makes
// re-deriving drift from the catalog on every pass safe without a version ledger.
type Reconciler struct {
	db      *sql.DB
	dialect Dialect
	schema  Schema
	log     *zap.Logger

	// OnPass, when set, observes every pass (trigger is "boot", "on_demand" or "manual").
	OnPass func(trigger string, res ReconcileResult)
}

func NewReconciler(db *sql.DB, dialect Dialect, schema Schema, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		db:      db,
		dialect: dialect,
		schema:  schema,
		log:     log.With(zap.String("table", schema.Table)),
	}
}

func (r *Reconciler) Schema() Schema { return r.schema }

// LiveColumns lists the columns the table has right now, nil when it is absent.
func (r *Reconciler) LiveColumns(ctx context.Context) ([]string, error) {
	exists, err := r.dialect.TableExists(ctx, r.db, r.schema.Table)
	if err != nil || !exists {
		return nil, err
	}
	return r.dialect.Columns(ctx, r.db, r.schema.Table)
}

// ReconcileAtBoot runs one additive pass. An absent table is reported, not
// created: creation belongs to EnsureTable. Failures are logged and returned in
// the result, never raised.
func (r *Reconciler) ReconcileAtBoot(ctx context.Context) ReconcileResult {
	return r.run(ctx, "boot")
}

// Reconcile runs an additive pass on request (admin repair, CLI).
func (r *Reconciler) Reconcile(ctx context.Context) ReconcileResult {
	return r.run(ctx, "manual")
}

func (r *Reconciler) run(ctx context.Context, trigger string) ReconcileResult {
	res := r.reconcile(ctx)
	if r.OnPass != nil {
		r.OnPass(trigger, res)
	}
	return res
}

func (r *Reconciler) reconcile(ctx context.Context) ReconcileResult {
	res := ReconcileResult{Failed: map[string]error{}}

	exists, err := r.dialect.TableExists(ctx, r.db, r.schema.Table)
	if err != nil {
		r.log.Error("table existence check failed", zap.Error(err))
		res.Err = fmt.Errorf("check table %s: %w", r.schema.Table, err)
		return res
	}
	if !exists {
		r.log.Info("table absent, leaving creation to the storage layer")
		res.TableAbsent = true
		return res
	}

	live, err := r.dialect.Columns(ctx, r.db, r.schema.Table)
	if err != nil {
		r.log.Error("column introspection failed", zap.Error(err))
		res.Err = fmt.Errorf("list columns of %s: %w", r.schema.Table, err)
		return res
	}
	res.Before = live

	missing := r.schema.Missing(live)
	if len(missing) == 0 {
		r.log.Debug("schema up to date", zap.Strings("columns", live))
		return res
	}

	r.log.Info("schema drift detected", zap.Strings("missing", columnNames(missing)))

	for _, col := range missing {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", r.schema.Table, col.Name, col.Definition())
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			if r.dialect.IsDuplicateColumn(err) {
				r.log.Info("column already exists", zap.String("column", col.Name))
				res.AlreadyPresent = append(res.AlreadyPresent, col.Name)
				continue
			}
			r.log.Warn("add column failed", zap.String("column", col.Name), zap.Error(err))
			res.Failed[col.Name] = err
			continue
		}
		r.log.Info("column added", zap.String("column", col.Name), zap.String("definition", col.Definition()))
		res.Added = append(res.Added, col.Name)
	}

	r.log.Info("reconciliation finished",
		zap.Int("added", len(res.Added)),
		zap.Int("already_present", len(res.AlreadyPresent)),
		zap.Int("failed", len(res.Failed)),
	)
	return res
}

// Probe reads the given columns (all expected columns when none are given) and
// classifies the outcome.
func (r *Reconciler) Probe(ctx context.Context, columns ...string) (ProbeOutcome, error) {
	if len(columns) == 0 {
		columns = r.schema.Names()
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT 1", strings.Join(columns, ", "), r.schema.Table)

	rows, err := r.db.QueryContext(ctx, query)
	if err == nil {
		err = rows.Err()
		rows.Close()
	}
	switch {
	case err == nil:
		return ProbeOK, nil
	case r.dialect.IsSchemaError(err):
		return ProbeSchemaIncompatible, err
	default:
		return ProbeError, err
	}
}

// ReconcileOnDemand is used when a request finds the live schema older than the
// code. It probes, patches only on a schema-incompatible outcome and probes again.
// False means the schema is still unusable and the caller must answer with a
// retryable degraded response instead of running its query.
func (r *Reconciler) ReconcileOnDemand(ctx context.Context, columns ...string) bool {
	outcome, err := r.Probe(ctx, columns...)
	switch outcome {
	case ProbeOK:
		return true
	case ProbeError:
		r.log.Error("schema probe failed", zap.Error(err))
		return false
	}

	r.log.Warn("schema older than code, reconciling", zap.Error(err))
	res := r.run(ctx, "on_demand")
	if res.TableAbsent {
		if err := EnsureTable(ctx, r.db, r.dialect, r.schema); err != nil {
			r.log.Error("create table failed", zap.Error(err))
			return false
		}
	}

	outcome, err = r.Probe(ctx, columns...)
	if outcome != ProbeOK {
		r.log.Error("schema still incompatible after reconciliation",
			zap.Stringer("outcome", outcome), zap.Error(err))
		return false
	}
	return true
}

func columnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
