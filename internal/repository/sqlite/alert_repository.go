package sqlite

import (
	"fmt"

	"opensentry/internal/model"
)

// AlertRepository implements repository.AlertRepository for SQLite.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new SQLite alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert adds a new alert record to the database.
func (r *AlertRepository) Insert(alert *model.Alert) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO alerts (label, confidence, snapshot, created_at)
		VALUES (?, ?, ?, ?)
	`, alert.Label, alert.Confidence, alert.Snapshot, alert.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	return result.LastInsertId()
}

// GetRecent retrieves the newest alerts, up to limit.
func (r *AlertRepository) GetRecent(limit int) ([]model.Alert, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, label, confidence, snapshot, created_at
		FROM alerts ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var alert model.Alert
		if err := rows.Scan(&alert.ID, &alert.Label, &alert.Confidence,
			&alert.Snapshot, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// GetTotalCount returns the number of recorded alerts.
func (r *AlertRepository) GetTotalCount() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// CountByLabel returns per-class alert totals.
func (r *AlertRepository) CountByLabel() (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT label, COUNT(*) FROM alerts GROUP BY label
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts by label: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[label] = count
	}

	return counts, rows.Err()
}

// ExistsBySnapshot reports whether an alert references the snapshot file.
func (r *AlertRepository) ExistsBySnapshot(filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*) FROM alerts WHERE snapshot = ?
	`, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query alert by snapshot: %w", err)
	}
	return count > 0, nil
}

// DeleteBySnapshot removes alert records referencing the snapshot file.
func (r *AlertRepository) DeleteBySnapshot(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM alerts WHERE snapshot = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete alerts for snapshot: %w", err)
	}
	return nil
}

// DeleteAll removes every alert record.
func (r *AlertRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM alerts`); err != nil {
		return fmt.Errorf("failed to clear alerts: %w", err)
	}
	return nil
}
