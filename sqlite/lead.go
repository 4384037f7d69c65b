package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/fwojciec/leadcrawl"
)

// Compile-time interface verification.
var (
	_ leadcrawl.LeadService = (*LeadService)(nil)
	_ leadcrawl.LeadSink    = (*LeadService)(nil)
)

// LeadService implements leadcrawl.LeadService and leadcrawl.LeadSink using
// SQLite. Leads are stored as JSON with extracted columns for filtering.
type LeadService struct {
	db *DB
}

// NewLeadService creates a new LeadService.
func NewLeadService(db *DB) *LeadService {
	return &LeadService{db: db}
}

// SaveLead persists one finalized lead. Saving the same (run, UID) pair
// again replaces the stored record.
func (s *LeadService) SaveLead(ctx context.Context, lead *leadcrawl.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}

	domain, err := leadcrawl.NewCanonicalizer(nil).Domain(lead.PageURL)
	if err != nil {
		return err
	}

	data, err := json.Marshal(lead)
	if err != nil {
		return err
	}
	flags, err := json.Marshal(lead.Flags)
	if err != nil {
		return err
	}

	createdAt := lead.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := lead.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (uid, run_id, domain, confidence, flags, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, uid) DO UPDATE SET
			domain = excluded.domain,
			confidence = excluded.confidence,
			flags = excluded.flags,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, lead.UID, lead.RunID, domain, lead.Confidence, string(flags), string(data),
		createdAt.Format(time.RFC3339), updatedAt.Format(time.RFC3339))

	return err
}

// SaveSummary persists the operational summary for one domain.
func (s *LeadService) SaveSummary(ctx context.Context, summary *leadcrawl.DomainSummary) error {
	if summary.Domain == "" {
		return leadcrawl.Errorf(leadcrawl.EINVALID, "summary domain required")
	}

	flags, err := json.Marshal(summary.Flags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO domain_summaries (run_id, domain, pages_fetched, requests_made, score, flags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, domain) DO UPDATE SET
			pages_fetched = excluded.pages_fetched,
			requests_made = excluded.requests_made,
			score = excluded.score,
			flags = excluded.flags
	`, summary.RunID, summary.Domain, summary.PagesFetched, summary.RequestsMade,
		summary.Score, string(flags))

	return err
}

// FindLeadByUID retrieves a lead by UID. When the UID appears in several
// runs the most recently updated record wins.
func (s *LeadService) FindLeadByUID(ctx context.Context, uid string) (*leadcrawl.Lead, error) {
	var data string

	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM leads
		WHERE uid = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, uid).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, leadcrawl.Errorf(leadcrawl.ENOTFOUND, "lead not found")
	}
	if err != nil {
		return nil, err
	}

	return unmarshalLead(data)
}

// FindLeads retrieves leads matching the filter, newest first.
func (s *LeadService) FindLeads(ctx context.Context, filter leadcrawl.LeadFilter) ([]*leadcrawl.Lead, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT data FROM leads WHERE 1=1")

	if filter.UID != nil {
		query.WriteString(" AND uid = ?")
		args = append(args, *filter.UID)
	}
	if filter.Domain != nil {
		query.WriteString(" AND domain = ?")
		args = append(args, *filter.Domain)
	}
	if filter.RunID != nil {
		query.WriteString(" AND run_id = ?")
		args = append(args, *filter.RunID)
	}
	if filter.MinScore != nil {
		query.WriteString(" AND confidence >= ?")
		args = append(args, *filter.MinScore)
	}
	if filter.Flag != nil {
		query.WriteString(" AND EXISTS (SELECT 1 FROM json_each(leads.flags) WHERE json_each.value = ?)")
		args = append(args, string(*filter.Flag))
	}

	query.WriteString(" ORDER BY updated_at DESC, uid ASC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*leadcrawl.Lead
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		lead, err := unmarshalLead(data)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// FindSummaries retrieves the domain summaries for a run, ordered by domain.
func (s *LeadService) FindSummaries(ctx context.Context, runID string) ([]*leadcrawl.DomainSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, domain, pages_fetched, requests_made, score, flags
		FROM domain_summaries
		WHERE run_id = ?
		ORDER BY domain ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*leadcrawl.DomainSummary
	for rows.Next() {
		var summary leadcrawl.DomainSummary
		var flags string
		if err := rows.Scan(&summary.RunID, &summary.Domain, &summary.PagesFetched,
			&summary.RequestsMade, &summary.Score, &flags); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(flags), &summary.Flags); err != nil {
			return nil, err
		}
		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

func unmarshalLead(data string) (*leadcrawl.Lead, error) {
	var lead leadcrawl.Lead
	if err := json.Unmarshal([]byte(data), &lead); err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINTERNAL, "decoding stored lead: %v", err)
	}
	return &lead, nil
}
