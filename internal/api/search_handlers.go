package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scentlog/scentlog-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search perfumes",
		Description: "Full-text search over names, brands, tags and notes",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search query parameters.
type SearchInput struct {
	Query  string `query:"q" doc:"Search text; empty lists everything"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size, default 20"`
	Offset int    `query:"offset" minimum:"0" doc:"Number of hits to skip"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	res, err := s.collection.Search(ctx, search.Params{
		Query:  input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}
