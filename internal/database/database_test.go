package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

// seedCampaign creates an active campaign with a registered reviewer
// and returns (campaignID, userID).
func seedCampaign(t *testing.T, db *DB) (int64, int64) {
	t.Helper()
	campaignID, err := db.InsertCampaign("LOINC mapping", nil, "")
	if err != nil {
		t.Fatalf("creating campaign: %v", err)
	}
	if err := db.SetCampaignStatus(campaignID, StatusActive); err != nil {
		t.Fatalf("activating campaign: %v", err)
	}
	userID, err := db.InsertUser("reviewer@example.org", "Reviewer", "")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return campaignID, userID
}

func seedPair(t *testing.T, db *DB, campaignID int64, confidence *float64) int64 {
	t.Helper()
	id, err := db.InsertPair(&Pair{
		CampaignID:    campaignID,
		SourceText:    "Body weight",
		SourceID:      nil,
		TargetText:    "29463-7",
		LLMConfidence: confidence,
	})
	if err != nil {
		t.Fatalf("creating pair: %v", err)
	}
	return id
}

func TestInsertCampaign(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertCampaign("Test", ptr("questionnaire to LOINC"), "entity_matching")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	campaign, err := db.GetCampaign(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if campaign == nil {
		t.Fatal("expected campaign")
	}
	if campaign.Status != StatusDraft {
		t.Errorf("expected draft status, got %q", campaign.Status)
	}
	if campaign.Description == nil || *campaign.Description != "questionnaire to LOINC" {
		t.Error("expected description to round-trip")
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	db := openTestDB(t)
	campaign, err := db.GetCampaign(999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if campaign != nil {
		t.Error("expected nil for missing campaign")
	}
}

func TestCampaignLifecycle(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertCampaign("Lifecycle", nil, "")

	if err := db.SetCampaignStatus(id, StatusActive); err != nil {
		t.Fatalf("draft -> active: %v", err)
	}
	if err := db.SetCampaignStatus(id, StatusCompleted); err != nil {
		t.Fatalf("active -> completed: %v", err)
	}
	if err := db.SetCampaignStatus(id, StatusArchived); err != nil {
		t.Fatalf("completed -> archived: %v", err)
	}
}

func TestCampaignInvalidTransition(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertCampaign("Invalid", nil, "")

	// draft -> completed skips activation
	err := db.SetCampaignStatus(id, StatusCompleted)
	if err == nil {
		t.Fatal("expected error for draft -> completed")
	}

	if err := db.SetCampaignStatus(id, StatusArchived); err != nil {
		t.Fatalf("draft -> archived should be allowed: %v", err)
	}
	if err := db.SetCampaignStatus(id, StatusActive); err == nil {
		t.Error("expected error for archived -> active")
	}
}

func TestSetCampaignStatusNotFound(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetCampaignStatus(42, StatusActive); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertDuplicateUser(t *testing.T) {
	db := openTestDB(t)
	first, err := db.InsertUser("a@example.org", "A", "")
	if err != nil || first == 0 {
		t.Fatalf("first insert failed: id=%d err=%v", first, err)
	}
	second, err := db.InsertUser("a@example.org", "A again", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != 0 {
		t.Error("expected 0 for duplicate email")
	}
}

func TestUserNames(t *testing.T) {
	db := openTestDB(t)
	id1, _ := db.InsertUser("a@example.org", "Alice", "")
	id2, _ := db.InsertUser("b@example.org", "Bob", "")

	names, err := db.UserNames([]int64{id1, id2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names[id1] != "Alice" || names[id2] != "Bob" {
		t.Errorf("unexpected names map: %v", names)
	}

	empty, err := db.UserNames(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Error("expected empty map for no IDs")
	}
}

func TestInsertPairsDeduplicates(t *testing.T) {
	db := openTestDB(t)
	campaignID, _ := seedCampaign(t, db)

	batch := []Pair{
		{SourceText: "Weight", SourceID: ptr("q1"), TargetText: "29463-7", TargetID: ptr("l1")},
		{SourceText: "Height", SourceID: ptr("q2"), TargetText: "8302-2", TargetID: ptr("l2")},
		{SourceText: "Weight again", SourceID: ptr("q1"), TargetText: "dup", TargetID: ptr("l1")},
	}
	inserted, skipped, err := db.InsertPairs(campaignID, batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 || skipped != 1 {
		t.Errorf("expected 2 inserted / 1 skipped, got %d / %d", inserted, skipped)
	}

	// A second run with the same rows inserts nothing.
	inserted, skipped, err = db.InsertPairs(campaignID, batch[:2])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 0 || skipped != 2 {
		t.Errorf("expected 0 inserted / 2 skipped, got %d / %d", inserted, skipped)
	}
}

func TestInsertPairsWithoutIDsNotDeduplicated(t *testing.T) {
	db := openTestDB(t)
	campaignID, _ := seedCampaign(t, db)

	batch := []Pair{
		{SourceText: "free text", TargetText: "other text"},
		{SourceText: "free text", TargetText: "other text"},
	}
	inserted, skipped, err := db.InsertPairs(campaignID, batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 || skipped != 0 {
		t.Errorf("expected both rows inserted, got %d / %d", inserted, skipped)
	}
}

func TestGetPairRoundTrip(t *testing.T) {
	db := openTestDB(t)
	campaignID, _ := seedCampaign(t, db)
	id := seedPair(t, db, campaignID, floatPtr(0.87))

	pair, err := db.GetPair(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair == nil {
		t.Fatal("expected pair")
	}
	if pair.LLMConfidence == nil || *pair.LLMConfidence != 0.87 {
		t.Error("expected confidence to round-trip")
	}
	if pair.SourceText != "Body weight" || pair.TargetText != "29463-7" {
		t.Errorf("unexpected pair payload: %+v", pair)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	pairID := seedPair(t, db, campaignID, nil)
	if _, err := db.InsertVote(pairID, userID, ScoringBinary, ptr(OutcomeMatch), nil, nil, nil); err != nil {
		t.Fatalf("vote: %v", err)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Campaigns != 1 || stats.ActiveCampaigns != 1 {
		t.Errorf("unexpected campaign counts: %+v", stats)
	}
	if stats.Pairs != 1 || stats.Votes != 1 || stats.Users != 1 {
		t.Errorf("unexpected row counts: %+v", stats)
	}
}
