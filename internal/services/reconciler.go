package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangang/coachflow/backend/internal/models"
	"github.com/huangang/coachflow/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	reconcilerLockName = "selection_reconciler"
	reconcilerLockKey  = "global"
	reconcilerLockTTL  = 5 * time.Minute
)

// SelectionReconciler repairs users whose memberships ended up with zero or
// several selections after interleaved organization switches.
type SelectionReconciler struct {
	db             *gorm.DB
	logs           *SystemLogService
	retentionDays  int
	cronScheduler  *cron.Cron
	currentEntryID cron.EntryID
	instanceID     string
}

func NewSelectionReconciler(db *gorm.DB, retentionDays int) *SelectionReconciler {
	host, _ := os.Hostname()
	return &SelectionReconciler{
		db:            db,
		logs:          NewSystemLogService(db),
		retentionDays: retentionDays,
		instanceID:    fmt.Sprintf("%s-%d", host, os.Getpid()),
	}
}

// StartScheduler runs Reconcile on schedule and prunes old system logs daily.
func (r *SelectionReconciler) StartScheduler(schedule string) error {
	r.cronScheduler = cron.New()

	entryID, err := r.cronScheduler.AddFunc(schedule, func() {
		if _, err := r.RunLocked(); err != nil {
			logger.Warnf("[Reconciler] Run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconciler %q: %w", schedule, err)
	}
	r.currentEntryID = entryID

	if r.retentionDays > 0 {
		if _, err := r.cronScheduler.AddFunc("@daily", r.cleanupLogs); err != nil {
			return fmt.Errorf("schedule log cleanup: %w", err)
		}
	}

	r.cronScheduler.Start()
	logger.Infof("[Reconciler] Scheduler started (%s)", schedule)
	return nil
}

func (r *SelectionReconciler) StopScheduler() {
	if r.cronScheduler != nil {
		<-r.cronScheduler.Stop().Done()
	}
}

func (r *SelectionReconciler) cleanupLogs() {
	deleted, err := r.logs.CleanupOldLogs(r.retentionDays)
	if err != nil {
		logger.Warnf("[SystemLog] Failed to cleanup old logs: %v", err)
		return
	}
	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, r.retentionDays)
	}
}

// RunLocked runs Reconcile only if this instance obtains the scheduler lock.
func (r *SelectionReconciler) RunLocked() (int, error) {
	acquired, err := r.acquireLock()
	if err != nil {
		return 0, err
	}
	if !acquired {
		logger.Debug().Msg("[Reconciler] Lock held by another instance, skipping")
		return 0, nil
	}
	defer r.releaseLock()
	return r.Reconcile()
}

func (r *SelectionReconciler) acquireLock() (bool, error) {
	now := time.Now()
	lock := models.SchedulerLock{
		LockName:  reconcilerLockName,
		LockKey:   reconcilerLockKey,
		LockedBy:  r.instanceID,
		LockedAt:  now,
		ExpiresAt: now.Add(reconcilerLockTTL),
	}
	err := r.db.Create(&lock).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, fmt.Errorf("acquire lock: %w", err)
	}

	// take over an expired lock
	result := r.db.Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ? AND expires_at < ?", reconcilerLockName, reconcilerLockKey, now).
		Updates(map[string]interface{}{
			"locked_by":  r.instanceID,
			"locked_at":  now,
			"expires_at": now.Add(reconcilerLockTTL),
		})
	if result.Error != nil {
		return false, fmt.Errorf("take over lock: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *SelectionReconciler) releaseLock() {
	if err := r.db.Where("lock_name = ? AND lock_key = ? AND locked_by = ?",
		reconcilerLockName, reconcilerLockKey, r.instanceID).
		Delete(&models.SchedulerLock{}).Error; err != nil {
		logger.Warnf("[Reconciler] Failed to release lock: %v", err)
	}
}

// Reconcile returns the number of users whose selection was repaired.
func (r *SelectionReconciler) Reconcile() (int, error) {
	// selections on inactive memberships never count
	if err := r.db.Model(&models.Membership{}).
		Where("selected = ? AND status <> ?", true, models.MembershipActive).
		Update("selected", false).Error; err != nil {
		return 0, fmt.Errorf("clear inactive selections: %w", err)
	}

	type selectionCount struct {
		UserID   uint
		Selected int64
	}
	var counts []selectionCount
	if err := r.db.Model(&models.Membership{}).
		Select("user_id, SUM(CASE WHEN selected THEN 1 ELSE 0 END) AS selected").
		Where("status = ?", models.MembershipActive).
		Group("user_id").
		Having("SUM(CASE WHEN selected THEN 1 ELSE 0 END) <> 1").
		Scan(&counts).Error; err != nil {
		return 0, fmt.Errorf("count selections: %w", err)
	}

	repaired := 0
	for _, c := range counts {
		if err := r.repairUser(c.UserID); err != nil {
			logger.Warnf("[Reconciler] Failed to repair user %d: %v", c.UserID, err)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		logger.Infof("[Reconciler] Repaired selection for %d users", repaired)
		LogInfo("reconciler", "repair", fmt.Sprintf("repaired selection for %d users", repaired), nil, nil, nil)
	}
	return repaired, nil
}

// repairUser keeps the most recently selected active membership, or the
// earliest active one when none was ever selected.
func (r *SelectionReconciler) repairUser(userID uint) error {
	var memberships []models.Membership
	if err := r.db.Where("user_id = ? AND status = ?", userID, models.MembershipActive).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return err
	}
	if len(memberships) == 0 {
		return nil
	}

	keep := memberships[0]
	var latest *time.Time
	for _, m := range memberships {
		if m.SelectedAt != nil && (latest == nil || m.SelectedAt.After(*latest)) {
			latest = m.SelectedAt
			keep = m
		}
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Membership{}).
			Where("user_id = ? AND id <> ? AND selected = ?", userID, keep.ID, true).
			Update("selected", false).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"selected": true}
		if keep.SelectedAt == nil {
			updates["selected_at"] = time.Now()
		}
		return tx.Model(&models.Membership{}).Where("id = ?", keep.ID).Updates(updates).Error
	})
}
