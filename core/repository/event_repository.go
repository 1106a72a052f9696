package repository

import (
	"database/sql"
	"encoding/json"

	"ci-orchestrator/core/models"
)

// EventRepository handles database operations for build events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetBuildEvents retrieves events for a build
func (r *EventRepository) GetBuildEvents(buildID string, limit int) ([]models.BuildEvent, error) {
	query := `
		SELECT id, build_id, at, from_status, to_status, reason, meta_json
		FROM build_events
		WHERE build_id = $1
		ORDER BY at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, buildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.BuildEvent
	for rows.Next() {
		var event models.BuildEvent
		var fromStatus sql.NullString
		var metaJSON string

		err := rows.Scan(
			&event.ID,
			&event.BuildID,
			&event.At,
			&fromStatus,
			&event.ToStatus,
			&event.Reason,
			&metaJSON,
		)
		if err != nil {
			continue
		}

		if fromStatus.Valid {
			status := models.BuildStatus(fromStatus.String)
			event.FromStatus = &status
		}

		// Parse meta JSON
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &event.MetaJSON)
		}

		events = append(events, event)
	}

	return events, nil
}
