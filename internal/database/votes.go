package database

import (
	"database/sql"
	"fmt"
	"strings"
)

const voteColumns = `id, pair_id, user_id, scoring_mode, score_binary, score_numeric,
	expert_selected_code, reviewer_notes, created_at, updated_at`

// ValidateScore checks that a scoring mode and its score fields are
// consistent: binary votes carry exactly one of match/no_match/unsure
// and no numeric score; numeric votes carry a 1-5 score and no binary
// outcome.
func ValidateScore(scoringMode string, scoreBinary *string, scoreNumeric *int) error {
	switch scoringMode {
	case ScoringBinary:
		if scoreBinary == nil {
			return fmt.Errorf("binary vote requires score_binary")
		}
		switch *scoreBinary {
		case OutcomeMatch, OutcomeNoMatch, OutcomeUnsure:
		default:
			return fmt.Errorf("invalid score_binary %q", *scoreBinary)
		}
		if scoreNumeric != nil {
			return fmt.Errorf("binary vote must not carry score_numeric")
		}
	case ScoringNumeric:
		if scoreNumeric == nil {
			return fmt.Errorf("numeric vote requires score_numeric")
		}
		if *scoreNumeric < 1 || *scoreNumeric > 5 {
			return fmt.Errorf("score_numeric %d outside 1-5", *scoreNumeric)
		}
		if scoreBinary != nil {
			return fmt.Errorf("numeric vote must not carry score_binary")
		}
	default:
		return fmt.Errorf("invalid scoring_mode %q", scoringMode)
	}
	return nil
}

// InsertVote records a reviewer's judgment on a pair. A second vote for
// the same (pair, user) returns ErrDuplicateVote; callers should use
// EditVote instead.
func (db *DB) InsertVote(pairID, userID int64, scoringMode string, scoreBinary *string,
	scoreNumeric *int, expertSelectedCode, reviewerNotes *string) (*Vote, error) {

	if err := ValidateScore(scoringMode, scoreBinary, scoreNumeric); err != nil {
		return nil, err
	}

	_, err := db.conn.Exec(
		`INSERT INTO votes (pair_id, user_id, scoring_mode, score_binary, score_numeric,
			expert_selected_code, reviewer_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pairID, userID, scoringMode, scoreBinary, scoreNumeric, expertSelectedCode, reviewerNotes,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}
	return db.GetVote(pairID, userID)
}

// EditVote replaces the score of an existing vote and refreshes
// updated_at. The created_at timestamp is preserved. Returns
// ErrNotFound if no vote exists for the (pair, user).
func (db *DB) EditVote(pairID, userID int64, scoringMode string, scoreBinary *string,
	scoreNumeric *int, expertSelectedCode, reviewerNotes *string) (*Vote, error) {

	if err := ValidateScore(scoringMode, scoreBinary, scoreNumeric); err != nil {
		return nil, err
	}

	result, err := db.conn.Exec(
		`UPDATE votes SET scoring_mode = ?, score_binary = ?, score_numeric = ?,
			expert_selected_code = ?, reviewer_notes = ?, updated_at = datetime('now')
		WHERE pair_id = ? AND user_id = ?`,
		scoringMode, scoreBinary, scoreNumeric, expertSelectedCode, reviewerNotes,
		pairID, userID,
	)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return db.GetVote(pairID, userID)
}

// GetVote returns the vote for a (pair, user), or nil if none exists.
func (db *DB) GetVote(pairID, userID int64) (*Vote, error) {
	row := db.conn.QueryRow(
		"SELECT "+voteColumns+" FROM votes WHERE pair_id = ? AND user_id = ?",
		pairID, userID,
	)
	v, err := scanVote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// VotesForCampaign returns all votes on a campaign's pairs.
func (db *DB) VotesForCampaign(campaignID int64) ([]Vote, error) {
	rows, err := db.conn.Query(
		`SELECT v.id, v.pair_id, v.user_id, v.scoring_mode, v.score_binary, v.score_numeric,
			v.expert_selected_code, v.reviewer_notes, v.created_at, v.updated_at
		FROM votes v JOIN pairs p ON p.id = v.pair_id
		WHERE p.campaign_id = ? ORDER BY v.created_at, v.id`, campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVotes(rows)
}

// AllVotes returns every vote in the database, oldest first.
func (db *DB) AllVotes() ([]Vote, error) {
	rows, err := db.conn.Query(
		"SELECT " + voteColumns + " FROM votes ORDER BY created_at, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVotes(rows)
}

// CountVotes returns the number of votes on a campaign's pairs.
func (db *DB) CountVotes(campaignID int64) (int, error) {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM votes v JOIN pairs p ON p.id = v.pair_id WHERE p.campaign_id = ?`,
		campaignID,
	).Scan(&count)
	return count, err
}

func scanVotes(rows *sql.Rows) ([]Vote, error) {
	var votes []Vote
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.ID, &v.PairID, &v.UserID, &v.ScoringMode, &v.ScoreBinary,
			&v.ScoreNumeric, &v.ExpertSelectedCode, &v.ReviewerNotes,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func scanVote(row *sql.Row) (*Vote, error) {
	var v Vote
	if err := row.Scan(&v.ID, &v.PairID, &v.UserID, &v.ScoringMode, &v.ScoreBinary,
		&v.ScoreNumeric, &v.ExpertSelectedCode, &v.ReviewerNotes,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
