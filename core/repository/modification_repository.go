package repository

import (
	"database/sql"

	"ci-orchestrator/core/models"
)

// ModificationRepository handles database operations for detected modifications
type ModificationRepository struct {
	db *DB
}

// NewModificationRepository creates a new modification repository
func NewModificationRepository(db *DB) *ModificationRepository {
	return &ModificationRepository{db: db}
}

// CreateModifications stores the modification set that triggered a build
func (r *ModificationRepository) CreateModifications(buildID string, mods []*models.Modification) error {
	if len(mods) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO modifications (
			build_id, user_name, modified_at, folder_name, file_name,
			change_type, version, comment
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	for _, mod := range mods {
		var modifiedAt interface{}
		if !mod.ModifiedAt.IsZero() {
			modifiedAt = mod.ModifiedAt
		}

		_, err := tx.Exec(query,
			buildID,
			mod.UserName,
			modifiedAt,
			mod.FolderName,
			mod.FileName,
			mod.ChangeType,
			mod.Version,
			mod.Comment,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetModificationsByBuildID retrieves the modifications recorded for a build
func (r *ModificationRepository) GetModificationsByBuildID(buildID string) ([]*models.Modification, error) {
	query := `
		SELECT user_name, modified_at, folder_name, file_name,
			change_type, version, comment
		FROM modifications
		WHERE build_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []*models.Modification
	for rows.Next() {
		var mod models.Modification
		var modifiedAt sql.NullTime
		var comment sql.NullString

		err := rows.Scan(
			&mod.UserName,
			&modifiedAt,
			&mod.FolderName,
			&mod.FileName,
			&mod.ChangeType,
			&mod.Version,
			&comment,
		)
		if err != nil {
			continue
		}

		if modifiedAt.Valid {
			mod.ModifiedAt = modifiedAt.Time
		}
		if comment.Valid {
			mod.Comment = &comment.String
		}

		mods = append(mods, &mod)
	}

	return mods, nil
}
