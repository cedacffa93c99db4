package database

import (
	"database/sql"
	"fmt"
)

// validTransitions maps a campaign status to the statuses it may move to.
// Archive is reachable from any state; nothing leaves archived.
var validTransitions = map[string][]string{
	StatusDraft:     {StatusActive, StatusArchived},
	StatusActive:    {StatusCompleted, StatusArchived},
	StatusCompleted: {StatusArchived},
	StatusArchived:  {},
}

// InsertCampaign creates a new campaign in draft status.
func (db *DB) InsertCampaign(name string, description *string, campaignType string) (int64, error) {
	if campaignType == "" {
		campaignType = "entity_matching"
	}
	result, err := db.conn.Exec(
		`INSERT INTO campaigns (name, description, campaign_type) VALUES (?, ?, ?)`,
		name, description, campaignType,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetCampaign returns a single campaign by ID, or nil if not found.
func (db *DB) GetCampaign(campaignID int64) (*Campaign, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, description, campaign_type, status, created_at, updated_at
		FROM campaigns WHERE id = ?`, campaignID,
	)
	var c Campaign
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CampaignType, &c.Status,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListCampaigns returns all campaigns, newest first.
func (db *DB) ListCampaigns() ([]Campaign, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, description, campaign_type, status, created_at, updated_at
		FROM campaigns ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CampaignType, &c.Status,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// SetCampaignStatus transitions a campaign to a new status, enforcing
// the draft -> active -> completed lifecycle (archive from any state).
func (db *DB) SetCampaignStatus(campaignID int64, status string) error {
	campaign, err := db.GetCampaign(campaignID)
	if err != nil {
		return err
	}
	if campaign == nil {
		return ErrNotFound
	}

	allowed := false
	for _, next := range validTransitions[campaign.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, campaign.Status, status)
	}

	_, err = db.conn.Exec(
		`UPDATE campaigns SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, campaignID,
	)
	return err
}
