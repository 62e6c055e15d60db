package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scentlog/scentlog-server/internal/reference"
	"github.com/scentlog/scentlog-server/internal/service"
)

func (s *Server) registerReferenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/references/{kind}",
		Summary:     "List reference table",
		Description: "Returns a reference table in display order with usage counts",
		Tags:        []string{"References"},
	}, s.handleListReferences)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createReference",
		Method:        http.MethodPost,
		Path:          "/api/v1/references/{kind}",
		Summary:       "Create reference entry",
		Tags:          []string{"References"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReference)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameReference",
		Method:      http.MethodPatch,
		Path:        "/api/v1/references/{kind}/{id}",
		Summary:     "Rename reference entry",
		Description: "Returns the renamed entry and the table in its current order",
		Tags:        []string{"References"},
	}, s.handleRenameReference)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReference",
		Method:      http.MethodDelete,
		Path:        "/api/v1/references/{kind}/{id}",
		Summary:     "Delete reference entry",
		Description: "Fails with 409 while any perfume or event still uses the entry; returns the remaining table",
		Tags:        []string{"References"},
	}, s.handleDeleteReference)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeReferences",
		Method:      http.MethodPost,
		Path:        "/api/v1/references/{kind}/merge",
		Summary:     "Merge reference entries",
		Description: "Folds every listed entry into the first one and rewrites all uses",
		Tags:        []string{"References"},
	}, s.handleMergeReferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderReferences",
		Method:      http.MethodPut,
		Path:        "/api/v1/references/{kind}/order",
		Summary:     "Reorder reference table",
		Tags:        []string{"References"},
	}, s.handleReorderReferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "sortReferences",
		Method:      http.MethodPost,
		Path:        "/api/v1/references/{kind}/sort",
		Summary:     "Sort reference table",
		Description: "Sorts by name, or by usage count descending",
		Tags:        []string{"References"},
	}, s.handleSortReferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveReference",
		Method:      http.MethodPost,
		Path:        "/api/v1/references/{kind}/{id}/move",
		Summary:     "Move reference entry",
		Tags:        []string{"References"},
	}, s.handleMoveReference)
}

// === DTOs ===

// ReferenceKindInput addresses one table.
type ReferenceKindInput struct {
	Kind string `path:"kind" doc:"brand, tag, concentration, outlet or purchase_type"`
}

// ReferenceIDInput addresses one entry.
type ReferenceIDInput struct {
	Kind string `path:"kind" doc:"Reference table"`
	ID   string `path:"id" doc:"Entry ID"`
}

// ReferenceRequest is the value of an entry.
type ReferenceRequest struct {
	Name   string `json:"name,omitempty" doc:"Entry name"`
	Region string `json:"region,omitempty" doc:"Outlet region"`
}

// CreateReferenceInput wraps the create request for Huma.
type CreateReferenceInput struct {
	Kind string `path:"kind" doc:"Reference table"`
	Body ReferenceRequest
}

// RenameReferenceInput wraps the rename request for Huma.
type RenameReferenceInput struct {
	Kind string `path:"kind" doc:"Reference table"`
	ID   string `path:"id" doc:"Entry ID"`
	Body ReferenceRequest
}

// MergeReferencesRequest is the request body for a merge.
type MergeReferencesRequest struct {
	IDs    []string `json:"ids,omitempty" doc:"Entries to merge; the first one is kept"`
	Name   string   `json:"name,omitempty" doc:"New name for the kept entry"`
	Region string   `json:"region,omitempty" doc:"New region for the kept entry"`
}

// MergeReferencesInput wraps the merge request for Huma.
type MergeReferencesInput struct {
	Kind string `path:"kind" doc:"Reference table"`
	Body MergeReferencesRequest
}

// ReorderReferencesInput wraps a full order for Huma.
type ReorderReferencesInput struct {
	Kind string `path:"kind" doc:"Reference table"`
	Body struct {
		IDs []string `json:"ids,omitempty" doc:"Every entry ID in the new order"`
	}
}

// SortReferencesInput wraps a sort request for Huma.
type SortReferencesInput struct {
	Kind string `path:"kind" doc:"Reference table"`
	Body struct {
		Mode string `json:"mode" doc:"name or count"`
	}
}

// MoveReferenceInput wraps a move request for Huma.
type MoveReferenceInput struct {
	Kind string `path:"kind" doc:"Reference table"`
	ID   string `path:"id" doc:"Entry ID"`
	Body struct {
		Direction string `json:"direction" doc:"up or down"`
	}
}

// ReferenceOutput wraps one entry for Huma.
type ReferenceOutput struct {
	Body *reference.View
}

// ReferenceListOutput wraps a table for Huma.
type ReferenceListOutput struct {
	Body []reference.View
}

// ReferenceMutationOutput wraps the outcome of a rename, delete or merge for Huma.
type ReferenceMutationOutput struct {
	Body *reference.MutationResult
}

// === Handlers ===

func (s *Server) handleListReferences(ctx context.Context, input *ReferenceKindInput) (*ReferenceListOutput, error) {
	views, err := s.collection.ListReferences(ctx, input.Kind)
	if err != nil {
		return nil, err
	}
	return &ReferenceListOutput{Body: views}, nil
}

func (s *Server) handleCreateReference(ctx context.Context, input *CreateReferenceInput) (*ReferenceOutput, error) {
	v, err := s.collection.CreateReference(ctx, input.Kind, service.ReferenceInput{
		Name:   input.Body.Name,
		Region: input.Body.Region,
	})
	if err != nil {
		return nil, err
	}
	return &ReferenceOutput{Body: v}, nil
}

func (s *Server) handleRenameReference(ctx context.Context, input *RenameReferenceInput) (*ReferenceMutationOutput, error) {
	res, err := s.collection.RenameReference(ctx, input.Kind, input.ID, service.ReferenceInput{
		Name:   input.Body.Name,
		Region: input.Body.Region,
	})
	if err != nil {
		return nil, err
	}
	return &ReferenceMutationOutput{Body: res}, nil
}

func (s *Server) handleDeleteReference(ctx context.Context, input *ReferenceIDInput) (*ReferenceMutationOutput, error) {
	res, err := s.collection.DeleteReference(ctx, input.Kind, input.ID)
	if err != nil {
		return nil, err
	}
	return &ReferenceMutationOutput{Body: res}, nil
}

func (s *Server) handleMergeReferences(ctx context.Context, input *MergeReferencesInput) (*ReferenceMutationOutput, error) {
	res, err := s.collection.MergeReferences(ctx, input.Kind, service.MergeInput{
		IDs:    input.Body.IDs,
		Name:   input.Body.Name,
		Region: input.Body.Region,
	})
	if err != nil {
		return nil, err
	}
	return &ReferenceMutationOutput{Body: res}, nil
}

func (s *Server) handleReorderReferences(ctx context.Context, input *ReorderReferencesInput) (*ReferenceListOutput, error) {
	views, err := s.collection.ReorderReferences(ctx, input.Kind, input.Body.IDs)
	if err != nil {
		return nil, err
	}
	return &ReferenceListOutput{Body: views}, nil
}

func (s *Server) handleSortReferences(ctx context.Context, input *SortReferencesInput) (*ReferenceListOutput, error) {
	views, err := s.collection.SortReferences(ctx, input.Kind, input.Body.Mode)
	if err != nil {
		return nil, err
	}
	return &ReferenceListOutput{Body: views}, nil
}

func (s *Server) handleMoveReference(ctx context.Context, input *MoveReferenceInput) (*ReferenceListOutput, error) {
	views, err := s.collection.MoveReference(ctx, input.Kind, input.ID, input.Body.Direction)
	if err != nil {
		return nil, err
	}
	return &ReferenceListOutput{Body: views}, nil
}
