package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ci-orchestrator/core/models"

	"github.com/google/uuid"
)

// BuildRepository handles database operations for builds
type BuildRepository struct {
	db *DB
}

// NewBuildRepository creates a new build repository
func NewBuildRepository(db *DB) *BuildRepository {
	return &BuildRepository{db: db}
}

// CreateBuild creates a new build in the database
func (r *BuildRepository) CreateBuild(build *models.Build) error {
	query := `
		INSERT INTO builds (
			id, project_name, label, triggered_by, status, error,
			modification_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	buildID := uuid.New()
	if build.ID != "" {
		var err error
		buildID, err = uuid.Parse(build.ID)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	_, err := r.db.Exec(query,
		buildID,
		build.ProjectName,
		build.Label,
		build.Trigger,
		build.Status,
		build.Error,
		build.ModificationCount,
		now,
		now,
	)
	if err != nil {
		return err
	}

	build.ID = buildID.String()
	build.CreatedAt = now

	// Create initial event
	return r.CreateBuildEvent(build.ID, nil, build.Status, "build_created", nil)
}

// GetBuild retrieves a build by ID
func (r *BuildRepository) GetBuild(id string) (*models.Build, error) {
	query := `
		SELECT id, project_name, label, triggered_by, status, error,
			modification_count, started_at, finished_at, created_at, updated_at
		FROM builds
		WHERE id = $1
	`

	var build models.Build
	var startedAt sql.NullTime
	var finishedAt sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&build.ID,
		&build.ProjectName,
		&build.Label,
		&build.Trigger,
		&build.Status,
		&build.Error,
		&build.ModificationCount,
		&startedAt,
		&finishedAt,
		&build.CreatedAt,
		&build.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		build.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		build.CompletedAt = &finishedAt.Time
	}

	return &build, nil
}

// ListBuilds retrieves builds filtered by project and status
func (r *BuildRepository) ListBuilds(projectName string, status *models.BuildStatus, limit int) ([]*models.Build, error) {
	query := `
		SELECT id, project_name, label, triggered_by, status, error,
			modification_count, started_at, finished_at, created_at, updated_at
		FROM builds
	`
	var args []interface{}
	argIndex := 1
	where := ""

	if projectName != "" {
		where += fmt.Sprintf(" project_name = $%d", argIndex)
		args = append(args, projectName)
		argIndex++
	}
	if status != nil {
		if where != "" {
			where += " AND"
		}
		where += fmt.Sprintf(" status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}
	if where != "" {
		query += " WHERE" + where
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []*models.Build
	for rows.Next() {
		var build models.Build
		var startedAt sql.NullTime
		var finishedAt sql.NullTime

		err := rows.Scan(
			&build.ID,
			&build.ProjectName,
			&build.Label,
			&build.Trigger,
			&build.Status,
			&build.Error,
			&build.ModificationCount,
			&startedAt,
			&finishedAt,
			&build.CreatedAt,
			&build.UpdatedAt,
		)
		if err != nil {
			continue
		}

		if startedAt.Valid {
			build.StartedAt = &startedAt.Time
		}
		if finishedAt.Valid {
			build.CompletedAt = &finishedAt.Time
		}

		builds = append(builds, &build)
	}

	return builds, nil
}

// UpdateBuildStatus updates build status atomically with event logging
func (r *BuildRepository) UpdateBuildStatus(buildID string, fromStatus, toStatus models.BuildStatus, reason string, meta map[string]interface{}) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `UPDATE builds SET status = $1, updated_at = NOW() WHERE id = $2`
	switch toStatus {
	case models.BuildStatusRunning:
		updateQuery = `UPDATE builds SET status = $1, started_at = NOW(), updated_at = NOW() WHERE id = $2`
	case models.BuildStatusSucceeded, models.BuildStatusFailed, models.BuildStatusException:
		updateQuery = `UPDATE builds SET status = $1, finished_at = NOW(), updated_at = NOW() WHERE id = $2`
	}

	if _, err := tx.Exec(updateQuery, toStatus, buildID); err != nil {
		return err
	}

	if err := r.createBuildEventTx(tx, buildID, &fromStatus, toStatus, reason, meta); err != nil {
		return err
	}

	return tx.Commit()
}

// SetBuildError records a build's error message
func (r *BuildRepository) SetBuildError(buildID, message string) error {
	_, err := r.db.Exec(`UPDATE builds SET error = $1, updated_at = NOW() WHERE id = $2`, message, buildID)
	return err
}

// CreateBuildEvent creates a build event
func (r *BuildRepository) CreateBuildEvent(buildID string, fromStatus *models.BuildStatus, toStatus models.BuildStatus, reason string, meta map[string]interface{}) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.createBuildEventTx(tx, buildID, fromStatus, toStatus, reason, meta); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BuildRepository) createBuildEventTx(tx *sql.Tx, buildID string, fromStatus *models.BuildStatus, toStatus models.BuildStatus, reason string, meta map[string]interface{}) error {
	query := `
		INSERT INTO build_events (build_id, from_status, to_status, reason, meta_json, at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	var fromStatusStr *string
	if fromStatus != nil {
		s := string(*fromStatus)
		fromStatusStr = &s
	}

	metaJSON := "{}"
	if meta != nil {
		if metaBytes, err := json.Marshal(meta); err == nil {
			metaJSON = string(metaBytes)
		}
	}

	_, err := tx.Exec(query, buildID, fromStatusStr, toStatus, reason, metaJSON)
	return err
}
