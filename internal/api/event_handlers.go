package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/service"
)

func (s *Server) registerEventRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addEvent",
		Method:        http.MethodPost,
		Path:          "/api/v1/perfumes/{id}/events",
		Summary:       "Add event",
		Description:   "Records a smell or skin test, or a buy or sell transaction",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateEvent",
		Method:      http.MethodPatch,
		Path:        "/api/v1/perfumes/{id}/events/{eventID}",
		Summary:     "Update event",
		Description: "Edits the date, location or note of an event",
		Tags:        []string{"Events"},
	}, s.handleUpdateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEvent",
		Method:      http.MethodDelete,
		Path:        "/api/v1/perfumes/{id}/events/{eventID}",
		Summary:     "Delete event",
		Tags:        []string{"Events"},
	}, s.handleDeleteEvent)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/perfumes/{id}/notes",
		Summary:       "Add note",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPatch,
		Path:        "/api/v1/perfumes/{id}/notes/{noteID}",
		Summary:     "Update note",
		Tags:        []string{"Notes"},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNote",
		Method:      http.MethodDelete,
		Path:        "/api/v1/perfumes/{id}/notes/{noteID}",
		Summary:     "Delete note",
		Tags:        []string{"Notes"},
	}, s.handleDeleteNote)
}

// === DTOs ===

// AddEventRequest is the request body for recording an event.
type AddEventRequest struct {
	Type         string   `json:"type" doc:"smell, skin, buy or sell"`
	EventDate    string   `json:"event_date,omitempty" doc:"Optional date, YYYY-MM-DD"`
	Location     string   `json:"location,omitempty" doc:"Where it happened; tests inherit the previous location"`
	Note         string   `json:"note,omitempty" doc:"Free-text note"`
	Volume       *float64 `json:"volume,omitempty" doc:"Millilitres bought or sold"`
	Price        *float64 `json:"price,omitempty" doc:"Price paid or received"`
	PurchaseType string   `json:"purchase_type,omitempty" doc:"Purchase type name, e.g. decant"`
}

// AddEventInput wraps the add event request for Huma.
type AddEventInput struct {
	ID   string `path:"id" doc:"Perfume ID"`
	Body AddEventRequest
}

// UpdateEventRequest is the request body for editing an event.
type UpdateEventRequest struct {
	EventDate *string `json:"event_date,omitempty" doc:"Date, YYYY-MM-DD; empty clears it"`
	Location  *string `json:"location,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// UpdateEventInput wraps the update event request for Huma.
type UpdateEventInput struct {
	ID      string `path:"id" doc:"Perfume ID"`
	EventID string `path:"eventID" doc:"Event ID"`
	Body    UpdateEventRequest
}

// EventIDInput addresses one event.
type EventIDInput struct {
	ID      string `path:"id" doc:"Perfume ID"`
	EventID string `path:"eventID" doc:"Event ID"`
}

// EventOutput wraps an event for Huma.
type EventOutput struct {
	Body *service.EventView
}

// NoteRequest is the request body for a note.
type NoteRequest struct {
	Title   string `json:"title,omitempty" doc:"Title, defaults to Note"`
	Content string `json:"content,omitempty" doc:"Note text"`
}

// AddNoteInput wraps the add note request for Huma.
type AddNoteInput struct {
	ID   string `path:"id" doc:"Perfume ID"`
	Body NoteRequest
}

// UpdateNoteInput wraps the update note request for Huma.
type UpdateNoteInput struct {
	ID     string `path:"id" doc:"Perfume ID"`
	NoteID string `path:"noteID" doc:"Note ID"`
	Body   NoteRequest
}

// NoteIDInput addresses one note.
type NoteIDInput struct {
	ID     string `path:"id" doc:"Perfume ID"`
	NoteID string `path:"noteID" doc:"Note ID"`
}

// NoteOutput wraps a note for Huma.
type NoteOutput struct {
	Body *domain.Note
}

// === Handlers ===

func (s *Server) handleAddEvent(ctx context.Context, input *AddEventInput) (*EventOutput, error) {
	e, err := s.collection.AddEvent(ctx, input.ID, service.EventInput{
		Type:         input.Body.Type,
		EventDate:    input.Body.EventDate,
		Location:     input.Body.Location,
		Note:         input.Body.Note,
		Volume:       input.Body.Volume,
		Price:        input.Body.Price,
		PurchaseType: input.Body.PurchaseType,
	})
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: e}, nil
}

func (s *Server) handleUpdateEvent(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
	e, err := s.collection.UpdateEvent(ctx, input.ID, input.EventID, service.EventPatch{
		EventDate: input.Body.EventDate,
		Location:  input.Body.Location,
		Note:      input.Body.Note,
	})
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: e}, nil
}

func (s *Server) handleDeleteEvent(ctx context.Context, input *EventIDInput) (*struct{}, error) {
	return nil, s.collection.DeleteEvent(ctx, input.ID, input.EventID)
}

func (s *Server) handleAddNote(ctx context.Context, input *AddNoteInput) (*NoteOutput, error) {
	n, err := s.collection.AddNote(ctx, input.ID, service.NoteInput{Title: input.Body.Title, Content: input.Body.Content})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: n}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	n, err := s.collection.UpdateNote(ctx, input.ID, input.NoteID, service.NoteInput{Title: input.Body.Title, Content: input.Body.Content})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: n}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteIDInput) (*struct{}, error) {
	return nil, s.collection.DeleteNote(ctx, input.ID, input.NoteID)
}
