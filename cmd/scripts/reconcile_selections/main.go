package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/huangang/coachflow/backend/internal/config"
	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/internal/services"
	"gorm.io/gorm/logger"
)

// One-off repair of organization selections, for use when the scheduled
// reconciler is disabled or a manual fix is needed after a data import.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "only report users that need repair")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := models.Open(cfg.Database.Driver, cfg.Database.DSN, logger.Warn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	type row struct {
		UserID   uint
		Selected int64
	}
	var rows []row
	if err := db.Model(&models.Membership{}).
		Select("user_id, SUM(CASE WHEN selected THEN 1 ELSE 0 END) AS selected").
		Where("status = ?", models.MembershipActive).
		Group("user_id").
		Having("SUM(CASE WHEN selected THEN 1 ELSE 0 END) <> 1").
		Scan(&rows).Error; err != nil {
		log.Fatalf("Failed to query memberships: %v", err)
	}

	fmt.Printf("%-10s %-10s\n", "UserID", "Selected")
	fmt.Println("---------------------")
	for _, r := range rows {
		fmt.Printf("%-10d %-10d\n", r.UserID, r.Selected)
	}
	fmt.Printf("Users needing repair: %d\n", len(rows))

	if *dryRun {
		return
	}

	services.InitSystemLogger(db)
	repaired, err := services.NewSelectionReconciler(db, 0).RunLocked()
	if err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}
	fmt.Printf("Repaired %d users\n", repaired)
}
