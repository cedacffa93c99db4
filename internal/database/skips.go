package database

// InsertSkip records that a user declined to vote on a pair. Repeated
// skips for the same (pair, user) are no-ops.
func (db *DB) InsertSkip(pairID, userID int64) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO skipped_pairs (pair_id, user_id) VALUES (?, ?)`,
		pairID, userID,
	)
	return err
}

// SkipsForCampaign returns all skip records on a campaign's pairs.
func (db *DB) SkipsForCampaign(campaignID int64) ([]SkippedPair, error) {
	rows, err := db.conn.Query(
		`SELECT s.id, s.pair_id, s.user_id, s.created_at
		FROM skipped_pairs s JOIN pairs p ON p.id = s.pair_id
		WHERE p.campaign_id = ? ORDER BY s.created_at, s.id`, campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skips []SkippedPair
	for rows.Next() {
		var s SkippedPair
		if err := rows.Scan(&s.ID, &s.PairID, &s.UserID, &s.CreatedAt); err != nil {
			return nil, err
		}
		skips = append(skips, s)
	}
	return skips, rows.Err()
}
