package database

import (
	"errors"
	"testing"
)

func TestInsertVote(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	pairID := seedPair(t, db, campaignID, nil)

	vote, err := db.InsertVote(pairID, userID, ScoringBinary, ptr(OutcomeMatch), nil, nil, ptr("looks right"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vote == nil || vote.ScoreBinary == nil || *vote.ScoreBinary != OutcomeMatch {
		t.Fatalf("unexpected vote: %+v", vote)
	}
	if vote.ScoreNumeric != nil {
		t.Error("binary vote must not carry a numeric score")
	}
	if vote.ReviewerNotes == nil || *vote.ReviewerNotes != "looks right" {
		t.Error("expected notes to round-trip")
	}
}

func TestDuplicateVoteRejected(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	pairID := seedPair(t, db, campaignID, nil)

	if _, err := db.InsertVote(pairID, userID, ScoringBinary, ptr(OutcomeMatch), nil, nil, nil); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	_, err := db.InsertVote(pairID, userID, ScoringBinary, ptr(OutcomeNoMatch), nil, nil, nil)
	if !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("expected ErrDuplicateVote, got %v", err)
	}

	// Exactly one row survives, still holding the first judgment.
	vote, err := db.GetVote(pairID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vote == nil || *vote.ScoreBinary != OutcomeMatch {
		t.Errorf("expected original vote to be preserved, got %+v", vote)
	}
	votes, _ := db.VotesForCampaign(campaignID)
	if len(votes) != 1 {
		t.Errorf("expected exactly 1 stored vote, got %d", len(votes))
	}
}

func TestEditVote(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	pairID := seedPair(t, db, campaignID, nil)

	original, err := db.InsertVote(pairID, userID, ScoringBinary, ptr(OutcomeUnsure), nil, nil, nil)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}

	edited, err := db.EditVote(pairID, userID, ScoringNumeric, nil, intPtr(4), ptr("29463-7"), ptr("re-checked"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ScoringMode != ScoringNumeric || edited.ScoreNumeric == nil || *edited.ScoreNumeric != 4 {
		t.Errorf("expected numeric 4, got %+v", edited)
	}
	if edited.ScoreBinary != nil {
		t.Error("numeric vote must not carry a binary score")
	}
	if edited.CreatedAt != original.CreatedAt {
		t.Error("edit must preserve created_at")
	}
	if edited.ExpertSelectedCode == nil || *edited.ExpertSelectedCode != "29463-7" {
		t.Error("expected expert code to round-trip")
	}
}

func TestEditVoteNotFound(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	pairID := seedPair(t, db, campaignID, nil)

	_, err := db.EditVote(pairID, userID, ScoringBinary, ptr(OutcomeMatch), nil, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateScore(t *testing.T) {
	cases := []struct {
		name    string
		mode    string
		binary  *string
		numeric *int
		wantErr bool
	}{
		{"binary match", ScoringBinary, ptr(OutcomeMatch), nil, false},
		{"binary unsure", ScoringBinary, ptr(OutcomeUnsure), nil, false},
		{"binary missing score", ScoringBinary, nil, nil, true},
		{"binary bad outcome", ScoringBinary, ptr("maybe"), nil, true},
		{"binary with numeric", ScoringBinary, ptr(OutcomeMatch), intPtr(3), true},
		{"numeric 1", ScoringNumeric, nil, intPtr(1), false},
		{"numeric 5", ScoringNumeric, nil, intPtr(5), false},
		{"numeric 0", ScoringNumeric, nil, intPtr(0), true},
		{"numeric 6", ScoringNumeric, nil, intPtr(6), true},
		{"numeric missing score", ScoringNumeric, nil, nil, true},
		{"numeric with binary", ScoringNumeric, ptr(OutcomeMatch), intPtr(3), true},
		{"bad mode", "ordinal", nil, intPtr(3), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScore(tc.mode, tc.binary, tc.numeric)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateScore(%s) error = %v, wantErr %v", tc.name, err, tc.wantErr)
			}
		})
	}
}

func TestVoteCode(t *testing.T) {
	match := Vote{ScoringMode: ScoringBinary, ScoreBinary: ptr(OutcomeMatch)}
	noMatch := Vote{ScoringMode: ScoringBinary, ScoreBinary: ptr(OutcomeNoMatch)}
	unsure := Vote{ScoringMode: ScoringBinary, ScoreBinary: ptr(OutcomeUnsure)}
	numeric := Vote{ScoringMode: ScoringNumeric, ScoreNumeric: intPtr(5)}
	nullNumeric := Vote{ScoringMode: ScoringNumeric}

	if match.Code() != 1 || noMatch.Code() != 0 || unsure.Code() != 0 {
		t.Error("binary codes must map match->1, others->0")
	}
	if numeric.Code() != 5 {
		t.Error("numeric code must use the score")
	}
	if nullNumeric.Code() != 3 {
		t.Error("null numeric score defaults to 3")
	}
	if match.Definitive() != true || unsure.Definitive() != false || numeric.Definitive() != false {
		t.Error("only match/no_match binary votes are definitive")
	}
}

func TestSkipIdempotent(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	pairID := seedPair(t, db, campaignID, nil)

	for i := 0; i < 3; i++ {
		if err := db.InsertSkip(pairID, userID); err != nil {
			t.Fatalf("skip %d: %v", i, err)
		}
	}

	skips, err := db.SkipsForCampaign(campaignID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skips) != 1 {
		t.Errorf("expected exactly 1 skip record, got %d", len(skips))
	}
}

func TestSkipDoesNotBlockVoting(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	pairID := seedPair(t, db, campaignID, nil)

	if err := db.InsertSkip(pairID, userID); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if _, err := db.InsertVote(pairID, userID, ScoringBinary, ptr(OutcomeMatch), nil, nil, nil); err != nil {
		t.Fatalf("vote after skip should be allowed: %v", err)
	}
}

func TestCandidatePairsExcludesVotedAndSkipped(t *testing.T) {
	db := openTestDB(t)
	campaignID, userID := seedCampaign(t, db)
	voted := seedPair(t, db, campaignID, nil)
	skipped := seedPair(t, db, campaignID, nil)
	open := seedPair(t, db, campaignID, nil)

	if _, err := db.InsertVote(voted, userID, ScoringBinary, ptr(OutcomeMatch), nil, nil, nil); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := db.InsertSkip(skipped, userID); err != nil {
		t.Fatalf("skip: %v", err)
	}

	tallies, err := db.CandidatePairs(campaignID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tallies) != 1 || tallies[0].PairID != open {
		t.Fatalf("expected only the open pair, got %+v", tallies)
	}
}

func TestCandidatePairsTallies(t *testing.T) {
	db := openTestDB(t)
	campaignID, observer := seedCampaign(t, db)
	rater1, _ := db.InsertUser("r1@example.org", "R1", "")
	rater2, _ := db.InsertUser("r2@example.org", "R2", "")
	rater3, _ := db.InsertUser("r3@example.org", "R3", "")
	pairID := seedPair(t, db, campaignID, floatPtr(0.5))

	db.InsertVote(pairID, rater1, ScoringBinary, ptr(OutcomeMatch), nil, nil, nil)
	db.InsertVote(pairID, rater2, ScoringBinary, ptr(OutcomeUnsure), nil, nil, nil)
	db.InsertVote(pairID, rater3, ScoringNumeric, nil, intPtr(4), nil, nil)

	tallies, err := db.CandidatePairs(campaignID, observer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tallies) != 1 {
		t.Fatalf("expected 1 tally, got %d", len(tallies))
	}
	tally := tallies[0]
	if tally.VoteCount != 3 {
		t.Errorf("unsure and numeric votes count toward voteCount, got %d", tally.VoteCount)
	}
	if tally.DefinitiveCount != 1 || tally.PositiveCount != 1 {
		t.Errorf("only match/no_match are definitive: %+v", tally)
	}
	rate := tally.PositiveRate()
	if rate == nil || *rate != 1.0 {
		t.Errorf("expected positive rate 1.0, got %v", rate)
	}
}

func TestPositiveRateNilWithoutDefinitiveVotes(t *testing.T) {
	tally := PairTally{VoteCount: 2, DefinitiveCount: 0}
	if tally.PositiveRate() != nil {
		t.Error("expected nil positive rate with no definitive votes")
	}
}
