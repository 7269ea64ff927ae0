package repository

import (
	"opensentry/internal/model"
)

// AlertRepository defines the interface for alert log operations.
type AlertRepository interface {
	// Create operations
	Insert(alert *model.Alert) (int64, error)

	// Read operations
	GetRecent(limit int) ([]model.Alert, error)
	GetTotalCount() (int, error)
	CountByLabel() (map[string]int, error)
	ExistsBySnapshot(filename string) (bool, error)

	// Delete operations
	DeleteBySnapshot(filename string) error
	DeleteAll() error
}
