package repository

import (
	"database/sql"
	"fmt"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/models"
)

// ModerationRepository handles database operations for screening records
type ModerationRepository struct {
	db *sql.DB
}

// NewModerationRepository creates a new moderation repository
func NewModerationRepository(db *sql.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

const recordColumns = `
	id, asset_id, status, is_adult, illegal_minor, illegal_beast,
	requires_moderation, metadata_adult, metadata_minor, metadata_beast,
	screening_json, analysis_json, error_message, created_at, updated_at
`

// Upsert inserts or replaces the screening record for an asset. Decisions
// are computed fresh each time, so the stored row is always a full rewrite.
func (r *ModerationRepository) Upsert(record *models.ScreeningRecord) error {
	query := `
		INSERT INTO moderation_decisions (
			asset_id, status, is_adult, illegal_minor, illegal_beast,
			requires_moderation, metadata_adult, metadata_minor, metadata_beast,
			screening_json, analysis_json, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset_id) DO UPDATE SET
			status = excluded.status,
			is_adult = excluded.is_adult,
			illegal_minor = excluded.illegal_minor,
			illegal_beast = excluded.illegal_beast,
			requires_moderation = excluded.requires_moderation,
			metadata_adult = excluded.metadata_adult,
			metadata_minor = excluded.metadata_minor,
			metadata_beast = excluded.metadata_beast,
			screening_json = excluded.screening_json,
			analysis_json = excluded.analysis_json,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`

	result, err := r.db.Exec(query,
		record.AssetID,
		record.Status,
		record.IsAdult,
		record.IllegalMinor,
		record.IllegalBeast,
		record.RequiresModeration,
		record.MetadataAdult,
		record.MetadataMinor,
		record.MetadataBeast,
		record.ScreeningJSON,
		record.AnalysisJSON,
		record.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert screening record: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

// GetByAssetID retrieves the screening record for an asset
func (r *ModerationRepository) GetByAssetID(assetID string) (*models.ScreeningRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM moderation_decisions WHERE asset_id = ?`

	record := &models.ScreeningRecord{}
	err := r.db.QueryRow(query, assetID).Scan(
		&record.ID,
		&record.AssetID,
		&record.Status,
		&record.IsAdult,
		&record.IllegalMinor,
		&record.IllegalBeast,
		&record.RequiresModeration,
		&record.MetadataAdult,
		&record.MetadataMinor,
		&record.MetadataBeast,
		&record.ScreeningJSON,
		&record.AnalysisJSON,
		&record.ErrorMessage,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("screening record not found: %s", assetID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screening record: %w", err)
	}

	return record, nil
}

// ListFlagged retrieves records held for moderation, newest first
func (r *ModerationRepository) ListFlagged(limit, offset int) ([]*models.ScreeningRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM moderation_decisions
		WHERE status = ?
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Query(query, models.ModerationStatusFlagged, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ScreeningRecord, 0)
	for rows.Next() {
		record := &models.ScreeningRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.AssetID,
			&record.Status,
			&record.IsAdult,
			&record.IllegalMinor,
			&record.IllegalBeast,
			&record.RequiresModeration,
			&record.MetadataAdult,
			&record.MetadataMinor,
			&record.MetadataBeast,
			&record.ScreeningJSON,
			&record.AnalysisJSON,
			&record.ErrorMessage,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan screening record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// SetStatus updates the moderation status of one asset
func (r *ModerationRepository) SetStatus(assetID, status string) error {
	query := `
		UPDATE moderation_decisions
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE asset_id = ?
	`

	result, err := r.db.Exec(query, status, assetID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check status update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("screening record not found: %s", assetID)
	}

	return nil
}
