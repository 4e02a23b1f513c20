package registry

import (
	"context"
	"fmt"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// Export snapshots every registered record into the store, in sorted ref
// order. Uses ON CONFLICT(item_ref) DO NOTHING for idempotency - re-running
// an export against the same database is a no-op for rows already present.
//
// Each row carries the RFC 8785 canonical JSON of the record, its
// domain-separated hash, and the deterministic text rendering, so external
// tooling can diff exports without loading the front end.
func (r *Registry) Export(ctx context.Context, s *Store) error {
	for _, ref := range r.Refs() {
		spec, _ := r.Lookup(ref)
		if err := s.WriteRecord(ctx, ref, spec); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecord inserts one specification record.
func (s *Store) WriteRecord(ctx context.Context, ref ir.ItemRef, spec *ir.ProcedureSpecification) error {
	obj, err := ir.CanonicalSpecification(ref, spec)
	if err != nil {
		return fmt.Errorf("write record %s: %w", ref, err)
	}
	canonical, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Errorf("write record %s: %w", ref, err)
	}
	hash, err := ir.SpecificationHash(ref, spec)
	if err != nil {
		return fmt.Errorf("write record %s: %w", ref, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO spec_records
		(item_ref, item_kind, spec_hash, canonical, rendered, pure, trusted, ir_version, frontend_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_ref) DO NOTHING
	`,
		string(ref),
		string(ref.Kind()),
		hash,
		string(canonical),
		ir.RenderProcedureSpecification(ref, spec),
		boolToInt(spec.Pure),
		boolToInt(spec.Trusted),
		ir.IRVersion,
		ir.FrontEndVersion,
	)
	if err != nil {
		return fmt.Errorf("write record %s: %w", ref, err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
