package service

import (
	"context"
	"strings"
	"time"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
	"github.com/scentlog/scentlog-server/internal/id"
	"github.com/scentlog/scentlog-server/internal/query"
	"github.com/scentlog/scentlog-server/internal/reference"
	"github.com/scentlog/scentlog-server/internal/search"
)

// LinkInput is a labelled URL.
type LinkInput struct {
	Label string `json:"label" validate:"max=200"`
	URL   string `json:"url" validate:"required,url"`
}

// PerfumeInput creates a perfume. Reference values are given by name and
// resolved with find-or-create.
type PerfumeInput struct {
	Name          string      `json:"name" validate:"required,max=300"`
	Brand         string      `json:"brand" validate:"max=200"`
	Concentration string      `json:"concentration" validate:"max=100"`
	Tags          []string    `json:"tags" validate:"max=100,dive,max=100"`
	Outlets       []string    `json:"outlets" validate:"max=100,dive,max=200"`
	Links         []LinkInput `json:"links" validate:"max=50,dive"`
}

// PerfumePatch updates a perfume. Nil fields are left unchanged; an empty
// string clears a scalar reference.
type PerfumePatch struct {
	Name          *string      `json:"name" validate:"omitempty,min=1,max=300"`
	Brand         *string      `json:"brand" validate:"omitempty,max=200"`
	Concentration *string      `json:"concentration" validate:"omitempty,max=100"`
	Tags          *[]string    `json:"tags" validate:"omitempty,max=100,dive,max=100"`
	Outlets       *[]string    `json:"outlets" validate:"omitempty,max=100,dive,max=200"`
	Links         *[]LinkInput `json:"links" validate:"omitempty,max=50,dive"`
}

// QueryInput is a filter, a sort and an optional free-text search. A nil
// Filter selects everything.
type QueryInput struct {
	Filter *domain.FilterConfig `json:"filter"`
	Sort   domain.SortConfig    `json:"sort"`
	Text   string               `json:"q" validate:"max=200"`
}

// CreatePerfume adds a perfume to the collection.
func (s *CollectionService) CreatePerfume(ctx context.Context, in PerfumeInput) (*PerfumeDetail, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
	}

	var out *PerfumeDetail
	err := s.mutate(ctx, "create_perfume", func(tx *txn) error {
		perfumeID, err := id.Generate(id.PrefixPerfume)
		if err != nil {
			return domainerrors.Internal("generate id").WithCause(err)
		}
		p := &domain.Perfume{ID: perfumeID, Name: name, CreatedAt: tx.now}
		if err := applyReferences(tx.refs, p, &in.Brand, &in.Concentration, &in.Tags, &in.Outlets); err != nil {
			return err
		}
		p.Links = links(in.Links)
		tx.touch(p)
		tx.snap.Perfumes = append(tx.snap.Perfumes, p)

		out = s.detail(p, tx.refs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(out.ID).Info("perfume created", "name", out.Name, "brand", out.Brand)
	return out, nil
}

// GetPerfume returns the detail view of one perfume.
func (s *CollectionService) GetPerfume(ctx context.Context, perfumeID string) (*PerfumeDetail, error) {
	var out *PerfumeDetail
	err := s.read(ctx, func(snap *domain.Snapshot, refs *reference.Store) error {
		p := snap.FindPerfume(perfumeID)
		if p == nil {
			return domainerrors.NotFoundf("perfume %s not found", perfumeID)
		}
		out = s.detail(p, refs)
		return nil
	})
	return out, err
}

// UpdatePerfume applies a patch.
func (s *CollectionService) UpdatePerfume(ctx context.Context, perfumeID string, patch PerfumePatch) (*PerfumeDetail, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	var out *PerfumeDetail
	err := s.mutate(ctx, "update_perfume", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return domainerrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
			}
			p.Name = name
		}
		if err := applyReferences(tx.refs, p, patch.Brand, patch.Concentration, patch.Tags, patch.Outlets); err != nil {
			return err
		}
		if patch.Links != nil {
			p.Links = links(*patch.Links)
		}
		tx.touch(p)

		out = s.detail(p, tx.refs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(perfumeID).Info("perfume updated")
	return out, nil
}

// DeletePerfume removes a perfume with its events and notes. Reference
// entries it used are kept.
func (s *CollectionService) DeletePerfume(ctx context.Context, perfumeID string) error {
	err := s.mutate(ctx, "delete_perfume", func(tx *txn) error {
		for i, p := range tx.snap.Perfumes {
			if p.ID == perfumeID {
				tx.snap.Perfumes = append(tx.snap.Perfumes[:i], tx.snap.Perfumes[i+1:]...)
				tx.removed = append(tx.removed, perfumeID)
				return nil
			}
		}
		return domainerrors.NotFoundf("perfume %s not found", perfumeID)
	})
	if err != nil {
		return err
	}

	s.logger.WithPerfume(perfumeID).Info("perfume deleted")
	return nil
}

// Query filters, searches and orders the collection.
func (s *CollectionService) Query(ctx context.Context, in QueryInput) (*QueryResult, error) {
	filter := domain.NewFilterConfig()
	if in.Filter != nil {
		filter = *in.Filter
	}
	if err := s.validateQuery(filter, in); err != nil {
		return nil, err
	}

	start := time.Now()
	var out *QueryResult
	err := s.read(ctx, func(snap *domain.Snapshot, refs *reference.Store) error {
		eng := s.engine(refs)
		ids := eng.Run(snap.Perfumes, query.Query{Filter: filter, Sort: in.Sort, Text: in.Text})

		out = &QueryResult{
			Total:    len(ids),
			Filter:   filter.Describe(),
			Perfumes: make([]PerfumeSummary, 0, len(ids)),
		}
		for _, perfumeID := range ids {
			out.Perfumes = append(out.Perfumes, summarize(snap.FindPerfume(perfumeID), refs, eng))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveQuery("query", time.Since(start), out.Total)
	return out, nil
}

// Search runs a full-text search. Without an index it falls back to the
// substring match used by Query.
func (s *CollectionService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if err := s.validator.Var("q", params.Query, "max=200"); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		out *search.Result
		err error
	)
	if s.index != nil {
		out, err = s.index.Search(ctx, params)
		if err != nil {
			return nil, domainerrors.Internal("search failed").WithCause(err)
		}
	} else {
		out, err = s.substringSearch(ctx, params)
		if err != nil {
			return nil, err
		}
	}

	s.metrics.ObserveQuery("search", time.Since(start), len(out.Hits))
	return out, nil
}

func (s *CollectionService) substringSearch(ctx context.Context, params search.Params) (*search.Result, error) {
	res := &search.Result{Query: params.Query, Hits: []search.Hit{}}
	err := s.read(ctx, func(snap *domain.Snapshot, refs *reference.Store) error {
		eng := s.engine(refs)
		for _, perfumeID := range eng.Run(snap.Perfumes, query.Query{Filter: domain.NewFilterConfig(), Text: params.Query}) {
			p := snap.FindPerfume(perfumeID)
			res.Hits = append(res.Hits, search.Hit{
				ID:    p.ID,
				Score: 1,
				Name:  p.Name,
				Brand: refs.BrandName(p.BrandID),
				Tags:  refs.TagNames(p.TagIDs),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Total = uint64(len(res.Hits))

	limit := params.Limit
	if limit <= 0 || limit > search.MaxLimit {
		limit = search.DefaultLimit
	}
	offset := min(max(params.Offset, 0), len(res.Hits))
	res.Hits = res.Hits[offset:min(offset+limit, len(res.Hits))]
	return res, nil
}

// applyReferences resolves the given reference names onto p. Nil pointers
// leave the field unchanged.
func applyReferences(refs *reference.Store, p *domain.Perfume, brand, concentration *string, tags, outlets *[]string) error {
	if brand != nil {
		brandID, err := findOrCreate(refs.Brands, *brand)
		if err != nil {
			return err
		}
		p.BrandID = brandID
	}
	if concentration != nil {
		concentrationID, err := findOrCreate(refs.Concentrations, *concentration)
		if err != nil {
			return err
		}
		p.ConcentrationID = concentrationID
	}
	if tags != nil {
		tagIDs, err := refs.FindOrCreateTags(*tags)
		if err != nil {
			return domainerrors.Internal("resolve tags").WithCause(err)
		}
		p.TagIDs = tagIDs
	}
	if outlets != nil {
		outletIDs := make([]string, 0, len(*outlets))
		for _, name := range *outlets {
			outletID, err := refs.FindOrCreateOutlet(name)
			if err != nil {
				return domainerrors.Internal("resolve outlet").WithCause(err)
			}
			outletIDs = append(outletIDs, outletID)
		}
		p.OutletIDs = domain.DedupeIDs(outletIDs)
	}
	return nil
}

// findOrCreate trims name and resolves it; a blank name yields "".
func findOrCreate(t *reference.Table[string], name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	refID, err := t.FindOrCreate(name)
	if err != nil {
		return "", domainerrors.Internal("resolve reference").WithCause(err)
	}
	return refID, nil
}

func links(in []LinkInput) []domain.Link {
	out := make([]domain.Link, 0, len(in))
	for _, l := range in {
		url := strings.TrimSpace(l.URL)
		if url == "" {
			continue
		}
		label := strings.TrimSpace(l.Label)
		if label == "" {
			label = url
		}
		out = append(out, domain.Link{Label: label, URL: url})
	}
	return out
}
