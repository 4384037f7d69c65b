package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustOpenDB returns an open in-memory database, closed on test cleanup.
func mustOpenDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func testLead(uid, runID, pageURL string, updatedAt time.Time) *leadcrawl.Lead {
	return &leadcrawl.Lead{
		UID:        uid,
		RunID:      runID,
		Name:       "Jane Doe",
		Email:      "jane@studio.example",
		PageURL:    pageURL,
		Confidence: 11,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
}

func TestLeadService_SaveLead_Roundtrip(t *testing.T) {
	t.Parallel()

	s := sqlite.NewLeadService(mustOpenDB(t))
	ctx := context.Background()

	lead := testLead("https://studio.example/artists/jane", "run-1",
		"https://studio.example/artists/jane", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	lead.SocialHandles = map[string]string{"instagram": "@janedoe"}
	lead.ServicesOffered = []string{"Fine Line", "Blackwork"}
	lead.Flags = []leadcrawl.Flag{leadcrawl.FlagLowConfidence}
	lead.SourceURLs = map[leadcrawl.FieldName][]string{
		leadcrawl.FieldPersonName: {"https://studio.example/artists/jane"},
	}
	require.NoError(t, s.SaveLead(ctx, lead))

	got, err := s.FindLeadByUID(ctx, lead.UID)
	require.NoError(t, err)
	assert.Equal(t, lead.Name, got.Name)
	assert.Equal(t, lead.Email, got.Email)
	assert.Equal(t, lead.RunID, got.RunID)
	assert.Equal(t, lead.Confidence, got.Confidence)
	assert.Equal(t, lead.SocialHandles, got.SocialHandles)
	assert.Equal(t, lead.ServicesOffered, got.ServicesOffered)
	assert.Equal(t, lead.Flags, got.Flags)
	assert.Equal(t, lead.SourceURLs, got.SourceURLs)
}

func TestLeadService_SaveLead_UpsertsWithinRun(t *testing.T) {
	t.Parallel()

	s := sqlite.NewLeadService(mustOpenDB(t))
	ctx := context.Background()

	when := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	lead := testLead("uid-1", "run-1", "https://studio.example/a", when)
	require.NoError(t, s.SaveLead(ctx, lead))

	lead.Confidence = 20
	lead.UpdatedAt = when.Add(time.Minute)
	require.NoError(t, s.SaveLead(ctx, lead))

	leads, err := s.FindLeads(ctx, leadcrawl.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 20, leads[0].Confidence)
}

func TestLeadService_SaveLead_RejectsInvalidLead(t *testing.T) {
	t.Parallel()

	s := sqlite.NewLeadService(mustOpenDB(t))

	err := s.SaveLead(context.Background(), &leadcrawl.Lead{PageURL: "https://studio.example"})

	require.Error(t, err)
	assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(err))
}

func TestLeadService_FindLeadByUID_NotFound(t *testing.T) {
	t.Parallel()

	s := sqlite.NewLeadService(mustOpenDB(t))

	_, err := s.FindLeadByUID(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, leadcrawl.ENOTFOUND, leadcrawl.ErrorCode(err))
}

func TestLeadService_FindLeads_Filters(t *testing.T) {
	t.Parallel()

	s := sqlite.NewLeadService(mustOpenDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	jane := testLead("uid-jane", "run-1", "https://studio.example/artists/jane", base)
	jane.Confidence = 15
	require.NoError(t, s.SaveLead(ctx, jane))

	bob := testLead("uid-bob", "run-1", "https://studio.example/artists/bob", base.Add(time.Minute))
	bob.Confidence = 5
	bob.Flags = []leadcrawl.Flag{leadcrawl.FlagLowConfidence, leadcrawl.FlagNoEmail}
	require.NoError(t, s.SaveLead(ctx, bob))

	ana := testLead("uid-ana", "run-2", "https://other.example/ana", base.Add(2*time.Minute))
	ana.Confidence = 9
	require.NoError(t, s.SaveLead(ctx, ana))

	t.Run("no filter returns newest first", func(t *testing.T) {
		t.Parallel()

		leads, err := s.FindLeads(ctx, leadcrawl.LeadFilter{})
		require.NoError(t, err)
		require.Len(t, leads, 3)
		assert.Equal(t, "uid-ana", leads[0].UID)
		assert.Equal(t, "uid-bob", leads[1].UID)
		assert.Equal(t, "uid-jane", leads[2].UID)
	})

	t.Run("by domain", func(t *testing.T) {
		t.Parallel()

		domain := "studio.example"
		leads, err := s.FindLeads(ctx, leadcrawl.LeadFilter{Domain: &domain})
		require.NoError(t, err)
		require.Len(t, leads, 2)
	})

	t.Run("by run", func(t *testing.T) {
		t.Parallel()

		runID := "run-2"
		leads, err := s.FindLeads(ctx, leadcrawl.LeadFilter{RunID: &runID})
		require.NoError(t, err)
		require.Len(t, leads, 1)
		assert.Equal(t, "uid-ana", leads[0].UID)
	})

	t.Run("by minimum score", func(t *testing.T) {
		t.Parallel()

		minScore := 9
		leads, err := s.FindLeads(ctx, leadcrawl.LeadFilter{MinScore: &minScore})
		require.NoError(t, err)
		require.Len(t, leads, 2)
	})

	t.Run("by flag", func(t *testing.T) {
		t.Parallel()

		flag := leadcrawl.FlagNoEmail
		leads, err := s.FindLeads(ctx, leadcrawl.LeadFilter{Flag: &flag})
		require.NoError(t, err)
		require.Len(t, leads, 1)
		assert.Equal(t, "uid-bob", leads[0].UID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		t.Parallel()

		leads, err := s.FindLeads(ctx, leadcrawl.LeadFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, leads, 1)
		assert.Equal(t, "uid-bob", leads[0].UID)
	})
}

func TestLeadService_SaveSummary_Roundtrip(t *testing.T) {
	t.Parallel()

	s := sqlite.NewLeadService(mustOpenDB(t))
	ctx := context.Background()

	require.NoError(t, s.SaveSummary(ctx, &leadcrawl.DomainSummary{
		RunID:        "run-1",
		Domain:       "studio.example",
		PagesFetched: 2,
		RequestsMade: 22,
		Score:        15,
		Flags:        []leadcrawl.Flag{leadcrawl.FlagStoppedEarly},
	}))
	require.NoError(t, s.SaveSummary(ctx, &leadcrawl.DomainSummary{
		RunID:        "run-1",
		Domain:       "other.example",
		PagesFetched: 1,
		RequestsMade: 1,
	}))

	summaries, err := s.FindSummaries(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "other.example", summaries[0].Domain)
	assert.Equal(t, "studio.example", summaries[1].Domain)
	assert.Equal(t, 22, summaries[1].RequestsMade)
	assert.Equal(t, []leadcrawl.Flag{leadcrawl.FlagStoppedEarly}, summaries[1].Flags)
}

func TestLeadService_SaveSummary_RequiresDomain(t *testing.T) {
	t.Parallel()

	s := sqlite.NewLeadService(mustOpenDB(t))

	err := s.SaveSummary(context.Background(), &leadcrawl.DomainSummary{RunID: "run-1"})

	require.Error(t, err)
	assert.Equal(t, leadcrawl.EINVALID, leadcrawl.ErrorCode(err))
}
