package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangang/coachflow/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := models.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeNotifier struct {
	mu    sync.Mutex
	tasks []*SessionRequestedTask
	err   error
}

func (f *fakeNotifier) SessionRequested(ctx context.Context, task *SessionRequestedTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fixture struct {
	db       *gorm.DB
	org      models.Organization
	manager  models.User
	coach    models.User
	coach2   models.User
	e1       models.User
	e2       models.User
	outsider models.User
	notifier *fakeNotifier
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: strings.ToLower(name) + "@example.com", Password: "x", Role: "user"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func addMember(t *testing.T, db *gorm.DB, userID, orgID uint, role string, selected bool) models.Membership {
	t.Helper()
	m := models.Membership{UserID: userID, OrganizationID: orgID, Role: role, Status: models.MembershipActive}
	if selected {
		now := time.Now()
		m.Selected = true
		m.SelectedAt = &now
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return m
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db, notifier: &fakeNotifier{}}

	f.org = models.Organization{Name: "Acme Coaching"}
	if err := db.Create(&f.org).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}
	f.manager = createUser(t, db, "Manager")
	f.coach = createUser(t, db, "Coach")
	f.coach2 = createUser(t, db, "Coach2")
	f.e1 = createUser(t, db, "E1")
	f.e2 = createUser(t, db, "E2")
	f.outsider = createUser(t, db, "Outsider")

	addMember(t, db, f.manager.ID, f.org.ID, models.RoleManager, true)
	addMember(t, db, f.coach.ID, f.org.ID, models.RoleCoach, true)
	addMember(t, db, f.coach2.ID, f.org.ID, models.RoleCoach, true)
	addMember(t, db, f.e1.ID, f.org.ID, models.RoleEntrepreneur, true)
	addMember(t, db, f.e2.ID, f.org.ID, models.RoleEntrepreneur, true)
	return f
}

func (f *fixture) actor(u models.User, role string) Actor {
	return Actor{UserID: u.ID, OrganizationID: f.org.ID, Role: role}
}

func (f *fixture) engagement() *EngagementService {
	return NewEngagementService(f.db, f.notifier, "https://app.example.com/")
}

// requestSession creates a requested session coached by f.coach for e1 and e2.
func (f *fixture) requestSession(t *testing.T) *models.Session {
	t.Helper()
	start := time.Now().Add(24 * time.Hour)
	res, err := f.engagement().CreateSession(context.Background(), f.actor(f.manager, models.RoleManager), &CreateSessionRequest{
		Title:           "Pitch deck review",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		CoachID:         f.coach.ID,
		EntrepreneurIDs: []uint{f.e1.ID, f.e2.ID},
		Price:           150,
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return res.Session
}

// completedSession drives a new session through accept and complete.
func (f *fixture) completedSession(t *testing.T) *models.Session {
	t.Helper()
	s := f.requestSession(t)
	svc := f.engagement()
	if _, err := svc.RespondToRequest(f.actor(f.coach, models.RoleCoach), s.ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}
	done, err := svc.MarkStatus(f.actor(f.coach, models.RoleCoach), s.ID, models.SessionCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return done
}

func countSelected(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Membership{}).Where("user_id = ? AND selected = ?", userID, true).Count(&n).Error; err != nil {
		t.Fatalf("count selected: %v", err)
	}
	return n
}
