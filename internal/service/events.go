package service

import (
	"context"
	"strings"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
	"github.com/scentlog/scentlog-server/internal/id"
	"github.com/scentlog/scentlog-server/internal/logger"
)

// EventInput records a sampling or a transaction.
//
// Volume is the unsigned amount in millilitres; a sell is stored with a
// negative delta. Smell and skin events without a location inherit the
// location of the perfume's latest event.
type EventInput struct {
	Type         string   `json:"type" validate:"required,event_type"`
	EventDate    string   `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
	Location     string   `json:"location" validate:"max=200"`
	Note         string   `json:"note" validate:"max=2000"`
	Volume       *float64 `json:"volume" validate:"omitempty,gte=0"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	PurchaseType string   `json:"purchase_type" validate:"max=100"`
}

// EventPatch edits an event. Type and amounts are fixed once recorded.
type EventPatch struct {
	EventDate *string `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
	Location  *string `json:"location" validate:"omitempty,max=200"`
	Note      *string `json:"note" validate:"omitempty,max=2000"`
}

// NoteInput creates or replaces a note.
type NoteInput struct {
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=20000"`
}

// AddEvent appends an event to a perfume's log.
func (s *CollectionService) AddEvent(ctx context.Context, perfumeID string, in EventInput) (*EventView, error) {
	// Whitespace-only dates count as absent.
	in.EventDate = strings.TrimSpace(in.EventDate)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var out EventView
	err := s.mutate(ctx, "add_event", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		eventID, err := id.Generate(id.PrefixEvent)
		if err != nil {
			return domainerrors.Internal("generate id").WithCause(err)
		}

		e := domain.Event{
			ID:        eventID,
			PerfumeID: p.ID,
			Type:      domain.EventType(in.Type),
			Timestamp: tx.now,
			EventDate: in.EventDate,
			Note:      strings.TrimSpace(in.Note),
			Location:  strings.TrimSpace(in.Location),
		}

		switch e.Type {
		case domain.EventSmell, domain.EventSkin:
			if e.Location == "" {
				e.Location = p.LastLocation()
			}
		case domain.EventBuy, domain.EventSell:
			e.VolumeDelta = signedVolume(e.Type, in.Volume)
			if in.Price != nil && *in.Price > 0 {
				price := *in.Price
				e.Price = &price
			}
			if e.PurchaseTypeID, err = findOrCreate(tx.refs.PurchaseTypes, in.PurchaseType); err != nil {
				return err
			}
		}
		// A new location becomes an outlet entry.
		if _, err := tx.refs.FindOrCreateOutlet(e.Location); err != nil {
			return domainerrors.Internal("resolve outlet").WithCause(err)
		}

		p.Events = append(p.Events, e)
		tx.touch(p)
		out = eventView(e, tx.refs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(perfumeID).With(logger.KeyEventID, out.ID).Info("event recorded", "type", out.Type)
	return &out, nil
}

// signedVolume stores buys as positive and sells as negative deltas. Zero
// or missing volumes are not recorded.
func signedVolume(t domain.EventType, volume *float64) *float64 {
	if volume == nil || *volume == 0 {
		return nil
	}
	v := *volume
	if t == domain.EventSell {
		v = -v
	}
	return &v
}

// UpdateEvent edits the date, location or note of an event.
func (s *CollectionService) UpdateEvent(ctx context.Context, perfumeID, eventID string, patch EventPatch) (*EventView, error) {
	if patch.EventDate != nil {
		trimmed := strings.TrimSpace(*patch.EventDate)
		patch.EventDate = &trimmed
	}
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	var out EventView
	err := s.mutate(ctx, "update_event", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		i := p.FindEvent(eventID)
		if i < 0 {
			return domainerrors.NotFoundf("event %s not found", eventID)
		}
		e := &p.Events[i]
		if patch.EventDate != nil {
			e.EventDate = *patch.EventDate
		}
		if patch.Location != nil {
			e.Location = strings.TrimSpace(*patch.Location)
			if _, err := tx.refs.FindOrCreateOutlet(e.Location); err != nil {
				return domainerrors.Internal("resolve outlet").WithCause(err)
			}
		}
		if patch.Note != nil {
			e.Note = strings.TrimSpace(*patch.Note)
		}
		tx.touch(p)
		out = eventView(*e, tx.refs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(perfumeID).With(logger.KeyEventID, eventID).Info("event updated")
	return &out, nil
}

// DeleteEvent removes an event.
func (s *CollectionService) DeleteEvent(ctx context.Context, perfumeID, eventID string) error {
	err := s.mutate(ctx, "delete_event", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		i := p.FindEvent(eventID)
		if i < 0 {
			return domainerrors.NotFoundf("event %s not found", eventID)
		}
		p.Events = append(p.Events[:i], p.Events[i+1:]...)
		tx.touch(p)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithPerfume(perfumeID).With(logger.KeyEventID, eventID).Info("event deleted")
	return nil
}

// AddNote appends a note. A blank title becomes the default title.
func (s *CollectionService) AddNote(ctx context.Context, perfumeID string, in NoteInput) (*domain.Note, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var out domain.Note
	err := s.mutate(ctx, "add_note", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		noteID, err := id.Generate(id.PrefixNote)
		if err != nil {
			return domainerrors.Internal("generate id").WithCause(err)
		}
		out = domain.Note{ID: noteID, Title: noteTitle(in.Title), Content: strings.TrimSpace(in.Content), CreatedAt: tx.now}
		p.Notes = append(p.Notes, out)
		tx.touch(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(perfumeID).With(logger.KeyNoteID, out.ID).Info("note added")
	return &out, nil
}

// UpdateNote replaces the title and content of a note.
func (s *CollectionService) UpdateNote(ctx context.Context, perfumeID, noteID string, in NoteInput) (*domain.Note, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var out domain.Note
	err := s.mutate(ctx, "update_note", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		i := p.FindNote(noteID)
		if i < 0 {
			return domainerrors.NotFoundf("note %s not found", noteID)
		}
		p.Notes[i].Title = noteTitle(in.Title)
		p.Notes[i].Content = strings.TrimSpace(in.Content)
		out = p.Notes[i]
		tx.touch(p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPerfume(perfumeID).With(logger.KeyNoteID, noteID).Info("note updated")
	return &out, nil
}

// DeleteNote removes a note.
func (s *CollectionService) DeleteNote(ctx context.Context, perfumeID, noteID string) error {
	err := s.mutate(ctx, "delete_note", func(tx *txn) error {
		p, err := tx.perfume(perfumeID)
		if err != nil {
			return err
		}
		i := p.FindNote(noteID)
		if i < 0 {
			return domainerrors.NotFoundf("note %s not found", noteID)
		}
		p.Notes = append(p.Notes[:i], p.Notes[i+1:]...)
		tx.touch(p)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithPerfume(perfumeID).With(logger.KeyNoteID, noteID).Info("note deleted")
	return nil
}

func noteTitle(title string) string {
	if title = strings.TrimSpace(title); title == "" {
		return domain.DefaultNoteTitle
	}
	return title
}
