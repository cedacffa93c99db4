package database

// CandidatePairs returns vote tallies for every pair in a campaign the
// user has neither voted on nor skipped. The tallies feed the next-pair
// selector: voteCount includes every vote (numeric and unsure included),
// while the positive rate is derived only from definitive match/no_match
// outcomes.
func (db *DB) CandidatePairs(campaignID, userID int64) ([]PairTally, error) {
	rows, err := db.conn.Query(
		`SELECT p.id, p.llm_confidence,
			COUNT(v.id),
			COALESCE(SUM(CASE WHEN v.score_binary IN ('match', 'no_match') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN v.score_binary = 'match' THEN 1 ELSE 0 END), 0)
		FROM pairs p
		LEFT JOIN votes v ON v.pair_id = p.id
		WHERE p.campaign_id = ?
			AND p.id NOT IN (SELECT pair_id FROM votes WHERE user_id = ?)
			AND p.id NOT IN (SELECT pair_id FROM skipped_pairs WHERE user_id = ?)
		GROUP BY p.id`,
		campaignID, userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []PairTally
	for rows.Next() {
		var t PairTally
		if err := rows.Scan(&t.PairID, &t.LLMConfidence, &t.VoteCount,
			&t.DefinitiveCount, &t.PositiveCount); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}
