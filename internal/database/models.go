package database

// Campaign statuses.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

// Scoring modes.
const (
	ScoringBinary  = "binary"
	ScoringNumeric = "numeric"
)

// Binary vote outcomes.
const (
	OutcomeMatch   = "match"
	OutcomeNoMatch = "no_match"
	OutcomeUnsure  = "unsure"
)

// Campaign is a container for candidate pairs under review.
type Campaign struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	CampaignType string  `json:"campaign_type"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// User is a registered reviewer or administrator.
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
}

// Pair is a machine-generated candidate match between a source entity
// and a target entity, awaiting human judgment.
type Pair struct {
	ID             int64    `json:"id"`
	CampaignID     int64    `json:"campaign_id"`
	PairType       *string  `json:"pair_type"`
	SourceText     string   `json:"source_text"`
	SourceID       *string  `json:"source_id"`
	SourceDataset  *string  `json:"source_dataset"`
	SourceMetadata *string  `json:"source_metadata"`
	TargetText     string   `json:"target_text"`
	TargetID       *string  `json:"target_id"`
	TargetDataset  *string  `json:"target_dataset"`
	TargetMetadata *string  `json:"target_metadata"`
	LLMConfidence  *float64 `json:"llm_confidence"`
	LLMModel       *string  `json:"llm_model"`
	LLMReasoning   *string  `json:"llm_reasoning"`
	ImportBatch    *string  `json:"import_batch"`
	CreatedAt      string   `json:"created_at"`
}

// Vote is one reviewer's judgment on one pair. The scoring mode
// determines which score field is authoritative; the other is nil.
type Vote struct {
	ID                 int64   `json:"id"`
	PairID             int64   `json:"pair_id"`
	UserID             int64   `json:"user_id"`
	ScoringMode        string  `json:"scoring_mode"`
	ScoreBinary        *string `json:"score_binary"`
	ScoreNumeric       *int    `json:"score_numeric"`
	ExpertSelectedCode *string `json:"expert_selected_code"`
	ReviewerNotes      *string `json:"reviewer_notes"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// Definitive reports whether the vote carries a match/no_match outcome.
// Unsure and numeric votes are not definitive.
func (v *Vote) Definitive() bool {
	if v.ScoringMode != ScoringBinary || v.ScoreBinary == nil {
		return false
	}
	return *v.ScoreBinary == OutcomeMatch || *v.ScoreBinary == OutcomeNoMatch
}

// Positive reports whether the vote is a definitive "match".
func (v *Vote) Positive() bool {
	return v.ScoringMode == ScoringBinary && v.ScoreBinary != nil && *v.ScoreBinary == OutcomeMatch
}

// Unsure reports whether the vote is a binary "unsure".
func (v *Vote) Unsure() bool {
	return v.ScoringMode == ScoringBinary && v.ScoreBinary != nil && *v.ScoreBinary == OutcomeUnsure
}

// Code maps the vote onto its nominal integer code for reliability
// computations: numeric votes use their 1-5 score, binary votes map
// match to 1 and everything else to 0.
func (v *Vote) Code() int {
	if v.ScoringMode == ScoringNumeric {
		if v.ScoreNumeric == nil {
			return 3
		}
		return *v.ScoreNumeric
	}
	if v.Positive() {
		return 1
	}
	return 0
}

// Day returns the calendar day (YYYY-MM-DD) the vote was created.
func (v *Vote) Day() string {
	if len(v.CreatedAt) < 10 {
		return v.CreatedAt
	}
	return v.CreatedAt[:10]
}

// SkippedPair marks that a user declined to vote on a pair.
type SkippedPair struct {
	ID        int64  `json:"id"`
	PairID    int64  `json:"pair_id"`
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

// PairTally summarizes the vote state of a single pair for the
// next-pair selector.
type PairTally struct {
	PairID          int64
	LLMConfidence   *float64
	VoteCount       int
	DefinitiveCount int
	PositiveCount   int
}

// PositiveRate returns positiveVotes/definitiveVotes, or nil when the
// pair has no definitive votes yet.
func (t *PairTally) PositiveRate() *float64 {
	if t.DefinitiveCount == 0 {
		return nil
	}
	r := float64(t.PositiveCount) / float64(t.DefinitiveCount)
	return &r
}

// Stats contains aggregate database statistics.
type Stats struct {
	Campaigns       int
	ActiveCampaigns int
	Pairs           int
	Votes           int
	Skips           int
	Users           int
}
