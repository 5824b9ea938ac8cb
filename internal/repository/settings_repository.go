package repository

import (
	"context"
	"database/sql"

	"github.com/salgaderia/pos/internal/model"
)

// settingsName is the single settings row holding production capacity.
const settingsName = "production"

// SettingsRepo provides access to the persisted production settings. The
// service layer caches the loaded value for the session; this repository is
// only hit on first load and on explicit save.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo returns a new SettingsRepo bound to the given database.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Production loads the production settings. ErrSettingsNotFound is returned
// when they have never been saved; capacity evaluation treats that as no
// limit configured.
func (r *SettingsRepo) Production(ctx context.Context) (*model.ProductionSettings, error) {
	var s model.ProductionSettings
	err := r.db.QueryRowContext(ctx,
		`SELECT limit_units, window_minutes FROM settings WHERE name = ?`, settingsName).
		Scan(&s.Limit, &s.WindowMinutes)
	if err == sql.ErrNoRows {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, Classify(err)
	}
	return &s, nil
}

// SaveProduction persists the production settings, creating the row on
// first save. This is the only mutation path for capacity configuration.
func (r *SettingsRepo) SaveProduction(ctx context.Context, s model.ProductionSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (name, limit_units, window_minutes) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE limit_units = VALUES(limit_units), window_minutes = VALUES(window_minutes)`,
		settingsName, s.Limit, s.WindowMinutes)
	if err != nil {
		return Classify(err)
	}
	return nil
}
