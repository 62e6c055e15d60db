package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/store"
)

// perfumeColumns is the ordered list of columns selected in perfume queries.
// Must match the scan order in scanPerfume.
const perfumeColumns = `id, name, brand_id, concentration_id, created_at, updated_at,
	community_votes, my_votes, community_url, community_source, community_updated_at, links`

func scanPerfume(scanner interface{ Scan(dest ...any) error }) (*domain.Perfume, error) {
	var p domain.Perfume

	var (
		concentrationID    sql.NullString
		createdAt          string
		updatedAt          string
		communityVotes     string
		myVotes            string
		communityURL       sql.NullString
		communitySource    sql.NullString
		communityUpdatedAt sql.NullString
		links              string
	)

	err := scanner.Scan(
		&p.ID,
		&p.Name,
		&p.BrandID,
		&concentrationID,
		&createdAt,
		&updatedAt,
		&communityVotes,
		&myVotes,
		&communityURL,
		&communitySource,
		&communityUpdatedAt,
		&links,
	)
	if err != nil {
		return nil, err
	}

	p.ConcentrationID = concentrationID.String
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("%w: perfume %s created_at: %v", store.ErrCorrupt, p.ID, err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("%w: perfume %s updated_at: %v", store.ErrCorrupt, p.ID, err)
	}
	if err := decodeJSON("community_votes", communityVotes, &p.Community); err != nil {
		return nil, err
	}
	if err := decodeJSON("my_votes", myVotes, &p.Mine); err != nil {
		return nil, err
	}
	if err := decodeJSON("links", links, &p.Links); err != nil {
		return nil, err
	}

	if communityURL.Valid || communitySource.Valid || communityUpdatedAt.Valid {
		src := &domain.CommunitySource{URL: communityURL.String, Source: communitySource.String}
		if communityUpdatedAt.Valid {
			if src.UpdatedAt, err = parseTime(communityUpdatedAt.String); err != nil {
				return nil, fmt.Errorf("%w: perfume %s community_updated_at: %v", store.ErrCorrupt, p.ID, err)
			}
		}
		p.CommunitySource = src
	}

	return &p, nil
}

func loadPerfumes(ctx context.Context, tx *sql.Tx) ([]*domain.Perfume, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+perfumeColumns+` FROM perfumes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load perfumes: %w", err)
	}
	defer rows.Close()

	var perfumes []*domain.Perfume
	byID := make(map[string]*domain.Perfume)
	for rows.Next() {
		p, err := scanPerfume(rows)
		if err != nil {
			return nil, err
		}
		perfumes = append(perfumes, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadPerfumeRefs(ctx, tx, byID); err != nil {
		return nil, err
	}
	if err := loadEvents(ctx, tx, byID); err != nil {
		return nil, err
	}
	if err := loadNotes(ctx, tx, byID); err != nil {
		return nil, err
	}
	return perfumes, nil
}

func loadPerfumeRefs(ctx context.Context, tx *sql.Tx, byID map[string]*domain.Perfume) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT perfume_id, kind, ref_id FROM perfume_refs
		ORDER BY perfume_id, kind, position`)
	if err != nil {
		return fmt.Errorf("load perfume refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var perfumeID, kind, refID string
		if err := rows.Scan(&perfumeID, &kind, &refID); err != nil {
			return err
		}
		p, ok := byID[perfumeID]
		if !ok {
			continue
		}
		switch domain.RefKind(kind) {
		case domain.RefTag:
			p.TagIDs = append(p.TagIDs, refID)
		case domain.RefOutlet:
			p.OutletIDs = append(p.OutletIDs, refID)
		}
	}
	return rows.Err()
}

func loadEvents(ctx context.Context, tx *sql.Tx, byID map[string]*domain.Perfume) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, perfume_id, type, timestamp, event_date, volume_delta, price,
			purchase_type_id, note, location
		FROM events ORDER BY perfume_id, position`)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e              domain.Event
			eventType      string
			timestamp      string
			eventDate      sql.NullString
			volumeDelta    sql.NullFloat64
			price          sql.NullFloat64
			purchaseTypeID sql.NullString
			note           sql.NullString
			location       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.PerfumeID, &eventType, &timestamp, &eventDate,
			&volumeDelta, &price, &purchaseTypeID, &note, &location); err != nil {
			return err
		}
		ts, err := parseTime(timestamp)
		if err != nil {
			return fmt.Errorf("%w: event %s timestamp: %v", store.ErrCorrupt, e.ID, err)
		}
		e.Type = domain.EventType(eventType)
		e.Timestamp = ts
		e.EventDate = eventDate.String
		e.VolumeDelta = floatPtr(volumeDelta)
		e.Price = floatPtr(price)
		e.PurchaseTypeID = purchaseTypeID.String
		e.Note = note.String
		e.Location = location.String

		if p, ok := byID[e.PerfumeID]; ok {
			p.Events = append(p.Events, e)
		}
	}
	return rows.Err()
}

func loadNotes(ctx context.Context, tx *sql.Tx, byID map[string]*domain.Perfume) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, perfume_id, title, content, created_at
		FROM notes ORDER BY perfume_id, position`)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n         domain.Note
			perfumeID string
			createdAt string
		)
		if err := rows.Scan(&n.ID, &perfumeID, &n.Title, &n.Content, &createdAt); err != nil {
			return err
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("%w: note %s created_at: %v", store.ErrCorrupt, n.ID, err)
		}
		if p, ok := byID[perfumeID]; ok {
			p.Notes = append(p.Notes, n)
		}
	}
	return rows.Err()
}

func savePerfume(ctx context.Context, tx *sql.Tx, position int, p *domain.Perfume) error {
	community, err := json.Marshal(p.Community)
	if err != nil {
		return fmt.Errorf("encode community votes: %w", err)
	}
	mine, err := json.Marshal(p.Mine)
	if err != nil {
		return fmt.Errorf("encode my votes: %w", err)
	}
	links := p.Links
	if links == nil {
		links = []domain.Link{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}

	var srcURL, srcName, srcUpdated sql.NullString
	if src := p.CommunitySource; src != nil {
		srcURL = nullString(src.URL)
		srcName = nullString(src.Source)
		if !src.UpdatedAt.IsZero() {
			srcUpdated = nullString(formatTime(src.UpdatedAt))
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO perfumes (id, position, name, brand_id, concentration_id, created_at, updated_at,
			community_votes, my_votes, community_url, community_source, community_updated_at, links)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		position,
		p.Name,
		p.BrandID,
		nullString(p.ConcentrationID),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
		string(community),
		string(mine),
		srcURL,
		srcName,
		srcUpdated,
		string(linksJSON),
	)
	if err != nil {
		return err
	}

	for kind, ids := range map[domain.RefKind][]string{domain.RefTag: p.TagIDs, domain.RefOutlet: p.OutletIDs} {
		for i, refID := range domain.DedupeIDs(ids) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO perfume_refs (perfume_id, kind, ref_id, position) VALUES (?, ?, ?, ?)`,
				p.ID, kind.String(), refID, i,
			); err != nil {
				return fmt.Errorf("insert %s ref: %w", kind, err)
			}
		}
	}

	for i := range p.Events {
		e := &p.Events[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, perfume_id, position, type, timestamp, event_date, volume_delta,
				price, purchase_type_id, note, location)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID,
			p.ID,
			i,
			string(e.Type),
			formatTime(e.Timestamp),
			nullString(e.EventDate),
			nullFloat(e.VolumeDelta),
			nullFloat(e.Price),
			nullString(e.PurchaseTypeID),
			nullString(e.Note),
			nullString(e.Location),
		); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	for i, n := range p.Notes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, perfume_id, position, title, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			n.ID, p.ID, i, n.Title, n.Content, formatTime(n.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert note %s: %w", n.ID, err)
		}
	}
	return nil
}
