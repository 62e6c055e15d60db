package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/service"
)

func (s *Server) registerPerfumeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPerfumes",
		Method:      http.MethodGet,
		Path:        "/api/v1/perfumes",
		Summary:     "List perfumes",
		Description: "Returns every perfume in collection order, optionally narrowed by a free-text query",
		Tags:        []string{"Perfumes"},
	}, s.handleListPerfumes)

	huma.Register(s.api, huma.Operation{
		OperationID: "queryPerfumes",
		Method:      http.MethodPost,
		Path:        "/api/v1/perfumes/query",
		Summary:     "Query perfumes",
		Description: "Filters and sorts the collection. Omitted facets are inactive.",
		Tags:        []string{"Perfumes"},
	}, s.handleQueryPerfumes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPerfume",
		Method:        http.MethodPost,
		Path:          "/api/v1/perfumes",
		Summary:       "Create perfume",
		Description:   "Adds a perfume. Brand, concentration, tags and outlets are resolved by name and created when missing.",
		Tags:          []string{"Perfumes"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePerfume)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPerfume",
		Method:      http.MethodGet,
		Path:        "/api/v1/perfumes/{id}",
		Summary:     "Get perfume",
		Description: "Returns the detail view of a perfume",
		Tags:        []string{"Perfumes"},
	}, s.handleGetPerfume)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePerfume",
		Method:      http.MethodPatch,
		Path:        "/api/v1/perfumes/{id}",
		Summary:     "Update perfume",
		Description: "Updates the given fields of a perfume",
		Tags:        []string{"Perfumes"},
	}, s.handleUpdatePerfume)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePerfume",
		Method:      http.MethodDelete,
		Path:        "/api/v1/perfumes/{id}",
		Summary:     "Delete perfume",
		Description: "Deletes a perfume with its events and notes",
		Tags:        []string{"Perfumes"},
	}, s.handleDeletePerfume)
}

// === DTOs ===

// LinkRequest is an external link in a perfume request.
type LinkRequest struct {
	Label string `json:"label,omitempty" doc:"Link label, defaults to the URL"`
	URL   string `json:"url" doc:"Link URL"`
}

// CreatePerfumeRequest is the request body for creating a perfume.
type CreatePerfumeRequest struct {
	Name          string        `json:"name" doc:"Perfume name"`
	Brand         string        `json:"brand,omitempty" doc:"Brand name"`
	Concentration string        `json:"concentration,omitempty" doc:"Concentration name, e.g. EDP"`
	Tags          []string      `json:"tags,omitempty" doc:"Tag names"`
	Outlets       []string      `json:"outlets,omitempty" doc:"Outlet names"`
	Links         []LinkRequest `json:"links,omitempty" doc:"External links"`
}

// CreatePerfumeInput wraps the create perfume request for Huma.
type CreatePerfumeInput struct {
	Body CreatePerfumeRequest
}

// UpdatePerfumeRequest is the request body for updating a perfume.
// Omitted fields stay unchanged; an empty brand or concentration clears it.
type UpdatePerfumeRequest struct {
	Name          *string        `json:"name,omitempty" doc:"Perfume name"`
	Brand         *string        `json:"brand,omitempty" doc:"Brand name"`
	Concentration *string        `json:"concentration,omitempty" doc:"Concentration name"`
	Tags          *[]string      `json:"tags,omitempty" doc:"Tag names, replacing the current tags"`
	Outlets       *[]string      `json:"outlets,omitempty" doc:"Outlet names, replacing the current outlets"`
	Links         *[]LinkRequest `json:"links,omitempty" doc:"Links, replacing the current links"`
}

// UpdatePerfumeInput wraps the update perfume request for Huma.
type UpdatePerfumeInput struct {
	ID   string `path:"id" doc:"Perfume ID"`
	Body UpdatePerfumeRequest
}

// PerfumeIDInput addresses one perfume.
type PerfumeIDInput struct {
	ID string `path:"id" doc:"Perfume ID"`
}

// PerfumeOutput wraps the perfume detail for Huma.
type PerfumeOutput struct {
	Body *service.PerfumeDetail
}

// ListPerfumesInput contains parameters for listing perfumes.
type ListPerfumesInput struct {
	Query string `query:"q" doc:"Case-insensitive substring over brand, name, tags and notes"`
}

// RangeRequest is a score window; omitted bounds default to the full scale.
type RangeRequest struct {
	Min     *float64 `json:"min,omitempty" doc:"Lower bound, inclusive"`
	Max     *float64 `json:"max,omitempty" doc:"Upper bound, inclusive"`
	Exclude bool     `json:"exclude,omitempty" doc:"Select perfumes outside the window"`
}

// FilterRequest lists the facets of a query. Every facet is optional.
type FilterRequest struct {
	Brands       []string      `json:"brands,omitempty" doc:"Brand names"`
	States       []string      `json:"states,omitempty" doc:"owned, tested or wishlist"`
	Seasons      []string      `json:"seasons,omitempty" doc:"spring, summer, fall or winter"`
	Times        []string      `json:"times,omitempty" doc:"day or night"`
	Rating       *RangeRequest `json:"rating,omitempty"`
	Longevity    *RangeRequest `json:"longevity,omitempty"`
	Sillage      *RangeRequest `json:"sillage,omitempty"`
	Value        *RangeRequest `json:"value,omitempty"`
	Genders      []string      `json:"genders,omitempty" doc:"Gender options"`
	Tags         []string      `json:"tags,omitempty" doc:"Tag names"`
	TagLogic     string        `json:"tag_logic,omitempty" doc:"or (default) or and"`
	HasMyVote    bool          `json:"has_my_vote,omitempty"`
	HasCommunity bool          `json:"has_community,omitempty"`
}

// SortKeyRequest is one key of a composite sort.
type SortKeyRequest struct {
	Dimension string `json:"dimension" doc:"brand, name, rating, longevity, sillage, gender, value or state"`
	Order     string `json:"order" doc:"asc/desc; female_first/male_first/unisex_first for gender; owned_first/tested_first for state"`
}

// QueryPerfumesRequest is the request body for querying perfumes.
type QueryPerfumesRequest struct {
	Filter *FilterRequest   `json:"filter,omitempty"`
	Sort   []SortKeyRequest `json:"sort,omitempty" doc:"Sort keys by priority"`
	Query  string           `json:"q,omitempty" doc:"Free-text query"`
}

// QueryPerfumesInput wraps the query request for Huma.
type QueryPerfumesInput struct {
	Body QueryPerfumesRequest
}

// QueryPerfumesOutput wraps the query result for Huma.
type QueryPerfumesOutput struct {
	Body *service.QueryResult
}

// === Handlers ===

func (s *Server) handleListPerfumes(ctx context.Context, input *ListPerfumesInput) (*QueryPerfumesOutput, error) {
	res, err := s.collection.Query(ctx, service.QueryInput{Text: input.Query})
	if err != nil {
		return nil, err
	}
	return &QueryPerfumesOutput{Body: res}, nil
}

func (s *Server) handleQueryPerfumes(ctx context.Context, input *QueryPerfumesInput) (*QueryPerfumesOutput, error) {
	q := service.QueryInput{Text: input.Body.Query}
	if input.Body.Filter != nil {
		filter := input.Body.Filter.toDomain()
		q.Filter = &filter
	}
	for _, k := range input.Body.Sort {
		q.Sort.Keys = append(q.Sort.Keys, domain.SortKey{
			Dimension: domain.SortDimension(k.Dimension),
			Order:     domain.SortOrder(k.Order),
		})
	}

	res, err := s.collection.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return &QueryPerfumesOutput{Body: res}, nil
}

func (s *Server) handleCreatePerfume(ctx context.Context, input *CreatePerfumeInput) (*PerfumeOutput, error) {
	p, err := s.collection.CreatePerfume(ctx, service.PerfumeInput{
		Name:          input.Body.Name,
		Brand:         input.Body.Brand,
		Concentration: input.Body.Concentration,
		Tags:          input.Body.Tags,
		Outlets:       input.Body.Outlets,
		Links:         linkInputs(input.Body.Links),
	})
	if err != nil {
		return nil, err
	}
	return &PerfumeOutput{Body: p}, nil
}

func (s *Server) handleGetPerfume(ctx context.Context, input *PerfumeIDInput) (*PerfumeOutput, error) {
	p, err := s.collection.GetPerfume(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PerfumeOutput{Body: p}, nil
}

func (s *Server) handleUpdatePerfume(ctx context.Context, input *UpdatePerfumeInput) (*PerfumeOutput, error) {
	patch := service.PerfumePatch{
		Name:          input.Body.Name,
		Brand:         input.Body.Brand,
		Concentration: input.Body.Concentration,
		Tags:          input.Body.Tags,
		Outlets:       input.Body.Outlets,
	}
	if input.Body.Links != nil {
		links := linkInputs(*input.Body.Links)
		patch.Links = &links
	}

	p, err := s.collection.UpdatePerfume(ctx, input.ID, patch)
	if err != nil {
		return nil, err
	}
	return &PerfumeOutput{Body: p}, nil
}

func (s *Server) handleDeletePerfume(ctx context.Context, input *PerfumeIDInput) (*struct{}, error) {
	return nil, s.collection.DeletePerfume(ctx, input.ID)
}

// === Helpers ===

func linkInputs(in []LinkRequest) []service.LinkInput {
	out := make([]service.LinkInput, len(in))
	for i, l := range in {
		out[i] = service.LinkInput{Label: l.Label, URL: l.URL}
	}
	return out
}

// toDomain starts from a filter that selects everything and applies the
// given facets.
func (f *FilterRequest) toDomain() domain.FilterConfig {
	cfg := domain.NewFilterConfig()
	cfg.Brands = f.Brands
	for _, st := range f.States {
		cfg.States = append(cfg.States, domain.StateFilter(st))
	}
	cfg.Seasons = f.Seasons
	cfg.Times = f.Times
	cfg.Rating = f.Rating.apply(cfg.Rating)
	cfg.Longevity = f.Longevity.apply(cfg.Longevity)
	cfg.Sillage = f.Sillage.apply(cfg.Sillage)
	cfg.Value = f.Value.apply(cfg.Value)
	cfg.Genders = f.Genders
	cfg.Tags = f.Tags
	if f.TagLogic != "" {
		cfg.TagLogic = domain.TagLogic(f.TagLogic)
	}
	cfg.HasMyVote = f.HasMyVote
	cfg.HasCommunity = f.HasCommunity
	return cfg
}

func (r *RangeRequest) apply(full domain.ScoreRange) domain.ScoreRange {
	if r == nil {
		return full
	}
	out := full
	if r.Min != nil {
		out.Min = *r.Min
	}
	if r.Max != nil {
		out.Max = *r.Max
	}
	out.Exclude = r.Exclude
	return out
}
