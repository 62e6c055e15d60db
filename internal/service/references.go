package service

import (
	"context"
	"errors"
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
	"github.com/scentlog/scentlog-server/internal/logger"
	"github.com/scentlog/scentlog-server/internal/reference"
)

// Table ordering modes.
const (
	SortModeName  = "name"
	SortModeCount = "count"
)

// Move directions.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// ReferenceInput is the value of a reference entry. Region only applies to
// outlets.
type ReferenceInput struct {
	Name   string `json:"name" validate:"required,max=200"`
	Region string `json:"region" validate:"max=200"`
}

// MergeInput folds IDs into IDs[0]. A blank Name keeps the target's value.
type MergeInput struct {
	IDs    []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
	Name   string   `json:"name" validate:"max=200"`
	Region string   `json:"region" validate:"max=200"`
}

// indexedKind reports tables whose names end up in search documents.
func indexedKind(kind domain.RefKind) bool {
	return kind == domain.RefBrand || kind == domain.RefTag
}

func parseKind(kind string) (domain.RefKind, error) {
	k := domain.RefKind(kind)
	if !k.IsValid() {
		return "", domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"kind": "must be one of: brand tag concentration outlet purchase_type"})
	}
	return k, nil
}

// referenceError maps table errors onto domain errors.
func referenceError(err error) error {
	var still *reference.StillReferencedError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &still):
		return domainerrors.StillReferenced(still.Error(), still.Count).WithCause(err)
	case errors.Is(err, reference.ErrUnknownEntry):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "reference entry not found")
	case errors.Is(err, reference.ErrDuplicate):
		return domainerrors.Wrap(err, domainerrors.CodeAlreadyExists, "reference value already exists")
	case errors.Is(err, reference.ErrUnknownKind),
		errors.Is(err, reference.ErrEmptyValue),
		errors.Is(err, reference.ErrInvalidOrder),
		errors.Is(err, reference.ErrEmptyMerge):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, err.Error())
	default:
		return domainerrors.Internal("reference operation failed").WithCause(err)
	}
}

// ListReferences returns a table in its current order with usage counts.
func (s *CollectionService) ListReferences(ctx context.Context, kind string) ([]reference.View, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	var out []reference.View
	err = s.read(ctx, func(snap *domain.Snapshot, refs *reference.Store) error {
		t, err := refs.Table(k)
		if err != nil {
			return referenceError(err)
		}
		out = t.Views(snap.Perfumes)
		return nil
	})
	return out, err
}

// CreateReference adds an entry. Plain tables reject a name that already
// exists; outlets may repeat a name across regions.
func (s *CollectionService) CreateReference(ctx context.Context, kind string, in ReferenceInput) (*reference.View, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	if err := s.validateReference(in); err != nil {
		return nil, err
	}

	var out *reference.View
	err = s.mutate(ctx, "create_reference", func(tx *txn) error {
		var refID string
		var err error
		if k == domain.RefOutlet {
			refID, err = tx.refs.Outlets.Append(outletValue(in.Name, in.Region))
		} else {
			var t *reference.Table[string]
			if t, err = tx.refs.Strings(k); err == nil {
				refID, err = t.Create(strings.TrimSpace(in.Name))
			}
		}
		if err != nil {
			return referenceError(err)
		}
		out, err = view(tx, k, refID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithReference(k.String(), out.ID).Info("reference entry created", "name", out.Name)
	return out, nil
}

// RenameReference changes the value of an entry in place. Every record
// referencing it shows the new name.
func (s *CollectionService) RenameReference(ctx context.Context, kind, refID string, in ReferenceInput) (*reference.MutationResult, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	if err := s.validateReference(in); err != nil {
		return nil, err
	}

	var out *reference.MutationResult
	err = s.mutate(ctx, "rename_reference", func(tx *txn) error {
		var err error
		if k == domain.RefOutlet {
			err = tx.refs.Outlets.Rename(refID, outletValue(in.Name, in.Region))
		} else {
			var t *reference.Table[string]
			if t, err = tx.refs.Strings(k); err == nil {
				err = t.Rename(refID, strings.TrimSpace(in.Name))
			}
		}
		if err != nil {
			return referenceError(err)
		}
		tx.reindexAll = indexedKind(k)
		out, err = tableResult(tx, k)
		if err != nil {
			return err
		}
		out.TargetID = refID
		out.Entry, err = view(tx, k, refID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithReference(k.String(), refID).Info("reference entry renamed", "name", out.Entry.Name)
	return out, nil
}

// DeleteReference removes an unused entry and returns the remaining table.
func (s *CollectionService) DeleteReference(ctx context.Context, kind, refID string) (*reference.MutationResult, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}

	var out *reference.MutationResult
	err = s.mutate(ctx, "delete_reference", func(tx *txn) error {
		t, err := tx.refs.Table(k)
		if err != nil {
			return referenceError(err)
		}
		if err := t.Delete(refID, tx.snap.Perfumes); err != nil {
			return referenceError(err)
		}
		out, err = tableResult(tx, k)
		if err != nil {
			return err
		}
		out.Removed = []string{refID}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrStillReferenced) {
			s.logger.WithReference(k.String(), refID).Warn("reference delete rejected", "reason", err.Error())
		}
		return nil, err
	}

	s.logger.WithReference(k.String(), refID).Info("reference entry deleted")
	return out, nil
}

// MergeReferences folds several entries into the first one.
func (s *CollectionService) MergeReferences(ctx context.Context, kind string, in MergeInput) (*reference.MutationResult, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var out reference.MutationResult
	err = s.mutate(ctx, "merge_references", func(tx *txn) error {
		var err error
		if k == domain.RefOutlet {
			keep, _ := tx.refs.Outlets.Get(in.IDs[0])
			if name := strings.TrimSpace(in.Name); name != "" {
				keep = outletValue(name, in.Region)
			}
			out, err = tx.refs.Outlets.Merge(in.IDs, keep, tx.snap.Perfumes)
		} else {
			var t *reference.Table[string]
			if t, err = tx.refs.Strings(k); err == nil {
				keep, _ := t.Get(in.IDs[0])
				if name := strings.TrimSpace(in.Name); name != "" {
					keep = name
				}
				out, err = t.Merge(in.IDs, keep, tx.snap.Perfumes)
			}
		}
		if err != nil {
			return referenceError(err)
		}
		for _, perfumeID := range out.PerfumeIDs {
			if p := tx.snap.FindPerfume(perfumeID); p != nil {
				tx.touch(p)
			}
		}
		tx.reindexAll = indexedKind(k)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMerge(k.String(), len(out.Removed))
	s.logger.WithReference(k.String(), out.TargetID).Info("reference entries merged",
		"removed", len(out.Removed),
		"perfumes", len(out.PerfumeIDs),
		"events", len(out.EventIDs),
	)
	return &out, nil
}

// ReorderReferences sets a custom table order.
func (s *CollectionService) ReorderReferences(ctx context.Context, kind string, order []string) ([]reference.View, error) {
	return s.reorder(ctx, kind, "reorder_references", func(tx *txn, t reference.Ops) error {
		return t.Reorder(order)
	})
}

// SortReferences orders a table by name or by usage count.
func (s *CollectionService) SortReferences(ctx context.Context, kind, mode string) ([]reference.View, error) {
	if mode != SortModeName && mode != SortModeCount {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"mode": "must be one of: name count"})
	}
	return s.reorder(ctx, kind, "sort_references", func(tx *txn, t reference.Ops) error {
		if mode == SortModeCount {
			t.SortByCount(tx.snap.Perfumes)
		} else {
			t.SortByName()
		}
		return nil
	})
}

// MoveReference swaps an entry with its neighbour.
func (s *CollectionService) MoveReference(ctx context.Context, kind, refID, direction string) ([]reference.View, error) {
	if direction != MoveUp && direction != MoveDown {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"direction": "must be one of: up down"})
	}
	return s.reorder(ctx, kind, "move_reference", func(_ *txn, t reference.Ops) error {
		if direction == MoveUp {
			return t.MoveUp(refID)
		}
		return t.MoveDown(refID)
	})
}

func (s *CollectionService) reorder(ctx context.Context, kind, op string, fn func(tx *txn, t reference.Ops) error) ([]reference.View, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}

	var out []reference.View
	err = s.mutate(ctx, op, func(tx *txn) error {
		t, err := tx.refs.Table(k)
		if err != nil {
			return referenceError(err)
		}
		if err := fn(tx, t); err != nil {
			return referenceError(err)
		}
		out = t.Views(tx.snap.Perfumes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField(logger.KeyRefKind, k.String()).Info("reference table reordered", "operation", op)
	return out, nil
}

func (s *CollectionService) validateReference(in ReferenceInput) error {
	if err := s.validator.Validate(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
	}
	return nil
}

func outletValue(name, region string) domain.Outlet {
	return domain.Outlet{Name: strings.TrimSpace(name), Region: strings.TrimSpace(region)}
}

// tableResult starts a result for a change that rewrote no references.
func tableResult(tx *txn, k domain.RefKind) (*reference.MutationResult, error) {
	t, err := tx.refs.Table(k)
	if err != nil {
		return nil, referenceError(err)
	}
	return &reference.MutationResult{
		Removed:    []string{},
		PerfumeIDs: []string{},
		EventIDs:   []string{},
		Table:      t.Views(tx.snap.Perfumes),
	}, nil
}

func view(tx *txn, k domain.RefKind, refID string) (*reference.View, error) {
	t, err := tx.refs.Table(k)
	if err != nil {
		return nil, referenceError(err)
	}
	for _, v := range t.Views(tx.snap.Perfumes) {
		if v.ID == refID {
			return &v, nil
		}
	}
	return nil, domainerrors.NotFoundf("%s %s not found", k, refID)
}
