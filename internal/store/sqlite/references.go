package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scentlog/scentlog-server/internal/domain"
)

func loadReferences(ctx context.Context, tx *sql.Tx) (domain.ReferenceData, error) {
	var data domain.ReferenceData

	rows, err := tx.QueryContext(ctx, `
		SELECT kind, id, name, region FROM reference_entries
		ORDER BY kind, position`)
	if err != nil {
		return data, fmt.Errorf("load references: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, refID, name, region string
		if err := rows.Scan(&kind, &refID, &name, &region); err != nil {
			return data, fmt.Errorf("scan reference: %w", err)
		}
		entry := domain.NamedEntry{ID: refID, Name: name}
		switch domain.RefKind(kind) {
		case domain.RefBrand:
			data.Brands = append(data.Brands, entry)
		case domain.RefTag:
			data.Tags = append(data.Tags, entry)
		case domain.RefConcentration:
			data.Concentrations = append(data.Concentrations, entry)
		case domain.RefPurchaseType:
			data.PurchaseTypes = append(data.PurchaseTypes, entry)
		case domain.RefOutlet:
			data.Outlets = append(data.Outlets, domain.OutletEntry{
				ID:     refID,
				Outlet: domain.Outlet{Name: name, Region: region},
			})
		}
	}
	return data, rows.Err()
}

func saveReferences(ctx context.Context, tx *sql.Tx, data *domain.ReferenceData) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_entries (kind, id, position, name, region)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare references: %w", err)
	}
	defer stmt.Close()

	named := []struct {
		kind    domain.RefKind
		entries []domain.NamedEntry
	}{
		{domain.RefBrand, data.Brands},
		{domain.RefTag, data.Tags},
		{domain.RefConcentration, data.Concentrations},
		{domain.RefPurchaseType, data.PurchaseTypes},
	}
	for _, table := range named {
		for i, e := range table.entries {
			if _, err := stmt.ExecContext(ctx, table.kind.String(), e.ID, i, e.Name, ""); err != nil {
				return fmt.Errorf("insert %s %s: %w", table.kind, e.ID, err)
			}
		}
	}
	for i, o := range data.Outlets {
		if _, err := stmt.ExecContext(ctx, domain.RefOutlet.String(), o.ID, i, o.Name, o.Region); err != nil {
			return fmt.Errorf("insert outlet %s: %w", o.ID, err)
		}
	}
	return nil
}
