package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scentlog/scentlog-server/internal/service"
)

func (s *Server) registerVoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setCommunityVotes",
		Method:      http.MethodPut,
		Path:        "/api/v1/perfumes/{id}/votes/community",
		Summary:     "Set community votes",
		Description: "Replaces the community tallies. Unknown categories and options are ignored and reported back.",
		Tags:        []string{"Votes"},
	}, s.handleSetCommunityVotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "setMyVote",
		Method:      http.MethodPut,
		Path:        "/api/v1/perfumes/{id}/votes/mine/{category}",
		Summary:     "Set personal vote",
		Description: "Selects an option of one category. Season/time toggles the option; other categories hold one " +
			"selection and choosing it again clears it. Omitting the option clears the category.",
		Tags: []string{"Votes"},
	}, s.handleSetMyVote)
}

// CommunityVotesRequest is the request body for importing community votes.
type CommunityVotesRequest struct {
	Votes  map[string]map[string]int `json:"votes" doc:"Counts by category and option"`
	URL    string                    `json:"url,omitempty" doc:"Page the counts were read from"`
	Source string                    `json:"source,omitempty" doc:"Name of the source"`
}

// CommunityVotesInput wraps the community votes request for Huma.
type CommunityVotesInput struct {
	ID   string `path:"id" doc:"Perfume ID"`
	Body CommunityVotesRequest
}

// CommunityVotesOutput wraps the result for Huma.
type CommunityVotesOutput struct {
	Body *service.CommunityVotesResult
}

// MyVoteRequest is the request body for a personal vote.
type MyVoteRequest struct {
	Option *string `json:"option,omitempty" doc:"Option to select; omit to clear the category"`
}

// MyVoteInput wraps the personal vote request for Huma.
type MyVoteInput struct {
	ID       string `path:"id" doc:"Perfume ID"`
	Category string `path:"category" doc:"rating, season_time, longevity, sillage, gender or value"`
	Body     MyVoteRequest
}

func (s *Server) handleSetCommunityVotes(ctx context.Context, input *CommunityVotesInput) (*CommunityVotesOutput, error) {
	res, err := s.collection.SetCommunityVotes(ctx, input.ID, service.CommunityVotesInput{
		Votes:  input.Body.Votes,
		URL:    input.Body.URL,
		Source: input.Body.Source,
	})
	if err != nil {
		return nil, err
	}
	return &CommunityVotesOutput{Body: res}, nil
}

func (s *Server) handleSetMyVote(ctx context.Context, input *MyVoteInput) (*PerfumeOutput, error) {
	p, err := s.collection.SetMyVote(ctx, input.ID, input.Category, input.Body.Option)
	if err != nil {
		return nil, err
	}
	return &PerfumeOutput{Body: p}, nil
}
