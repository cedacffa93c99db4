package database

import (
	"database/sql"
	"fmt"
)

const pairColumns = `id, campaign_id, pair_type, source_text, source_id, source_dataset,
	source_metadata, target_text, target_id, target_dataset, target_metadata,
	llm_confidence, llm_model, llm_reasoning, import_batch, created_at`

// InsertPair inserts a single pair and returns its ID.
func (db *DB) InsertPair(p *Pair) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO pairs (campaign_id, pair_type, source_text, source_id, source_dataset,
			source_metadata, target_text, target_id, target_dataset, target_metadata,
			llm_confidence, llm_model, llm_reasoning, import_batch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CampaignID, p.PairType, p.SourceText, p.SourceID, p.SourceDataset,
		p.SourceMetadata, p.TargetText, p.TargetID, p.TargetDataset, p.TargetMetadata,
		p.LLMConfidence, p.LLMModel, p.LLMReasoning, p.ImportBatch,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertPairs bulk-inserts pairs for a campaign in one transaction.
// Rows whose (source_id, target_id) already exist in the campaign are
// skipped. Returns (inserted, skipped).
func (db *DB) InsertPairs(campaignID int64, pairs []Pair) (int, int, error) {
	existing, err := db.pairKeys(campaignID)
	if err != nil {
		return 0, 0, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO pairs (campaign_id, pair_type, source_text, source_id, source_dataset,
			source_metadata, target_text, target_id, target_dataset, target_metadata,
			llm_confidence, llm_model, llm_reasoning, import_batch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, 0, err
	}
	defer stmt.Close()

	inserted, skipped := 0, 0
	for i := range pairs {
		p := &pairs[i]
		key := pairKey(p.SourceID, p.TargetID)
		if key != "" {
			if existing[key] {
				skipped++
				continue
			}
			existing[key] = true
		}
		if _, err := stmt.Exec(
			campaignID, p.PairType, p.SourceText, p.SourceID, p.SourceDataset,
			p.SourceMetadata, p.TargetText, p.TargetID, p.TargetDataset, p.TargetMetadata,
			p.LLMConfidence, p.LLMModel, p.LLMReasoning, p.ImportBatch,
		); err != nil {
			return 0, 0, fmt.Errorf("inserting pair %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return inserted, skipped, nil
}

// pairKeys returns the set of (source_id, target_id) keys already
// present in a campaign. Pairs without both IDs are not deduplicated.
func (db *DB) pairKeys(campaignID int64) (map[string]bool, error) {
	rows, err := db.conn.Query(
		`SELECT source_id, target_id FROM pairs
		WHERE campaign_id = ? AND source_id IS NOT NULL AND target_id IS NOT NULL`,
		campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var sourceID, targetID string
		if err := rows.Scan(&sourceID, &targetID); err != nil {
			return nil, err
		}
		keys[pairKey(&sourceID, &targetID)] = true
	}
	return keys, rows.Err()
}

func pairKey(sourceID, targetID *string) string {
	if sourceID == nil || targetID == nil {
		return ""
	}
	return *sourceID + "\x00" + *targetID
}

// GetPair returns a single pair by ID, or nil if not found.
func (db *DB) GetPair(pairID int64) (*Pair, error) {
	row := db.conn.QueryRow(
		"SELECT "+pairColumns+" FROM pairs WHERE id = ?", pairID,
	)
	p, err := scanPair(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PairsForCampaign returns all pairs in a campaign.
func (db *DB) PairsForCampaign(campaignID int64) ([]Pair, error) {
	rows, err := db.conn.Query(
		"SELECT "+pairColumns+" FROM pairs WHERE campaign_id = ? ORDER BY id", campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPairs(rows)
}

// CountPairs returns the number of pairs in a campaign.
func (db *DB) CountPairs(campaignID int64) (int, error) {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pairs WHERE campaign_id = ?`, campaignID,
	).Scan(&count)
	return count, err
}

func scanPairs(rows *sql.Rows) ([]Pair, error) {
	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.ID, &p.CampaignID, &p.PairType, &p.SourceText, &p.SourceID,
			&p.SourceDataset, &p.SourceMetadata, &p.TargetText, &p.TargetID, &p.TargetDataset,
			&p.TargetMetadata, &p.LLMConfidence, &p.LLMModel, &p.LLMReasoning,
			&p.ImportBatch, &p.CreatedAt); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func scanPair(row *sql.Row) (*Pair, error) {
	var p Pair
	if err := row.Scan(&p.ID, &p.CampaignID, &p.PairType, &p.SourceText, &p.SourceID,
		&p.SourceDataset, &p.SourceMetadata, &p.TargetText, &p.TargetID, &p.TargetDataset,
		&p.TargetMetadata, &p.LLMConfidence, &p.LLMModel, &p.LLMReasoning,
		&p.ImportBatch, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
