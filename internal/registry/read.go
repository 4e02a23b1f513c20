package registry

import (
	"context"
	"fmt"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// StoredRecord is one exported specification row as read back from the
// store. The canonical JSON is the authoritative form; the rendered text is
// for human inspection.
type StoredRecord struct {
	Ref             ir.ItemRef
	Kind            ir.ItemKind
	SpecHash        string
	Canonical       string
	Rendered        string
	Pure            bool
	Trusted         bool
	IRVersion       string
	FrontEndVersion string
}

// ReadRecords returns every exported record, ordered by item_ref for
// deterministic iteration. Returns an empty slice (not nil) when the store
// holds no records.
func (s *Store) ReadRecords(ctx context.Context) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_ref, item_kind, spec_hash, canonical, rendered, pure, trusted, ir_version, frontend_version
		FROM spec_records
		ORDER BY item_ref COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []StoredRecord{}
	for rows.Next() {
		var rec StoredRecord
		var ref, kind string
		var pure, trusted int
		if err := rows.Scan(&ref, &kind, &rec.SpecHash, &rec.Canonical, &rec.Rendered, &pure, &trusted, &rec.IRVersion, &rec.FrontEndVersion); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Ref = ir.ItemRef(ref)
		rec.Kind = ir.ItemKind(kind)
		rec.Pure = pure != 0
		rec.Trusted = trusted != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// ReadRecord returns the exported record for one item.
// The second return value reports whether the record exists.
func (s *Store) ReadRecord(ctx context.Context, ref ir.ItemRef) (StoredRecord, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_ref, item_kind, spec_hash, canonical, rendered, pure, trusted, ir_version, frontend_version
		FROM spec_records
		WHERE item_ref = ?
	`, string(ref))
	if err != nil {
		return StoredRecord{}, false, fmt.Errorf("query record %s: %w", ref, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return StoredRecord{}, false, fmt.Errorf("query record %s: %w", ref, err)
		}
		return StoredRecord{}, false, nil
	}

	var rec StoredRecord
	var r, kind string
	var pure, trusted int
	if err := rows.Scan(&r, &kind, &rec.SpecHash, &rec.Canonical, &rec.Rendered, &pure, &trusted, &rec.IRVersion, &rec.FrontEndVersion); err != nil {
		return StoredRecord{}, false, fmt.Errorf("scan record %s: %w", ref, err)
	}
	rec.Ref = ir.ItemRef(r)
	rec.Kind = ir.ItemKind(kind)
	rec.Pure = pure != 0
	rec.Trusted = trusted != 0

	return rec, true, nil
}
