package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"opensentry/internal/model"
	"opensentry/internal/repository/sqlite"
	"opensentry/internal/snapshot"
)

// backfill rebuilds alert history rows from snapshot files already on
// disk, for databases created after snapshots were taken.
func main() {
	snapshotsDir := flag.String("snapshots", "snapshots", "Directory containing snapshot images")
	dbPath := flag.String("db", "opensentry.db", "Alert database path")
	flag.Parse()

	fmt.Printf("Backfilling alerts from %s into %s\n", *snapshotsDir, *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	alerts := sqlite.NewAlertRepository(db)

	files, err := os.ReadDir(*snapshotsDir)
	if err != nil {
		log.Fatalf("Failed to read snapshots directory: %v", err)
	}

	inserted := 0
	skipped := 0
	for _, file := range files {
		name := file.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if file.IsDir() || (ext != ".jpg" && ext != ".jpeg" && ext != ".png") {
			continue
		}

		exists, err := alerts.ExistsBySnapshot(name)
		if err != nil {
			log.Printf("⚠️  Failed to check %s: %v", name, err)
			skipped++
			continue
		}
		if exists {
			skipped++
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("⚠️  Failed to get info for %s: %v", name, err)
			skipped++
			continue
		}

		label := snapshot.ClassFromFilename(name)
		if label == "" {
			label = "unknown"
		}

		if _, err := alerts.Insert(&model.Alert{
			Label:     label,
			Snapshot:  name,
			CreatedAt: info.ModTime(),
		}); err != nil {
			log.Printf("⚠️  Failed to insert alert for %s: %v", name, err)
			skipped++
			continue
		}
		inserted++
	}

	fmt.Printf("✅ Backfill complete: %d inserted, %d skipped\n", inserted, skipped)
}
