package quota

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

func setupQuotaDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.Subscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedTasks(t *testing.T, db *gorm.DB, userID uuid.UUID, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		task := models.Task{UserID: userID, Title: "t", LastDateToPlaceBid: time.Now().AddDate(0, 0, 7)}
		if err := db.Create(&task).Error; err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
}

func TestCheckTaskLimitDefault(t *testing.T) {
	db := setupQuotaDB(t)
	svc := NewQuotaService(db)
	userID := uuid.New()

	seedTasks(t, db, userID, DefaultTaskLimit-1)

	res, err := svc.CheckTaskLimit(userID, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.CanAddTask {
		t.Fatalf("expected to allow task %d, got %q", DefaultTaskLimit, res.Error)
	}

	seedTasks(t, db, userID, 1)

	res, err = svc.CheckTaskLimit(userID, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.CanAddTask {
		t.Fatal("expected the default limit to block")
	}
	want := "You have reached your task limit of 3 tasks for this month. Please upgrade your subscription to add more tasks."
	if res.Error != want {
		t.Fatalf("unexpected error message: %q", res.Error)
	}
}

func TestCheckTaskLimitWithPlan(t *testing.T) {
	db := setupQuotaDB(t)
	svc := NewQuotaService(db)
	userID := uuid.New()
	sub := &models.Subscription{MaximumTasks: 10}

	seedTasks(t, db, userID, DefaultTaskLimit)

	res, err := svc.CheckTaskLimit(userID, sub)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.CanAddTask {
		t.Fatalf("plan limit 10 should allow a fourth task: %q", res.Error)
	}

	seedTasks(t, db, userID, 7)

	res, err = svc.CheckTaskLimit(userID, sub)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.CanAddTask {
		t.Fatal("expected the plan limit to block at 10")
	}
}

// A subscription whose plan carries no usable limit behaves like no
// subscription at all.
func TestCheckTaskLimitPlanWithoutLimit(t *testing.T) {
	db := setupQuotaDB(t)
	svc := NewQuotaService(db)
	userID := uuid.New()
	sub := &models.Subscription{MaximumTasks: 0}

	seedTasks(t, db, userID, DefaultTaskLimit)

	res, err := svc.CheckTaskLimit(userID, sub)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.CanAddTask {
		t.Fatal("expected fallback to the default limit")
	}
}

func TestTasksCountForCurrentMonthIgnoresOtherUsers(t *testing.T) {
	db := setupQuotaDB(t)
	svc := NewQuotaService(db)
	userID := uuid.New()
	otherID := uuid.New()

	seedTasks(t, db, userID, 2)
	seedTasks(t, db, otherID, 5)

	count, err := svc.TasksCountForCurrentMonth(userID, time.Now())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
}

func TestActiveSubscription(t *testing.T) {
	db := setupQuotaDB(t)
	svc := NewQuotaService(db)
	userID := uuid.New()

	sub, err := svc.ActiveSubscription(userID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sub != nil {
		t.Fatal("expected nil without a subscription row")
	}

	row := models.Subscription{UserID: userID, PlanName: "basic", ExpiryDate: time.Now().AddDate(0, 0, -1)}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	sub, err = svc.ActiveSubscription(userID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sub != nil {
		t.Fatal("expected nil for an expired subscription")
	}

	if err := db.Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Update("expiry_date", time.Now().AddDate(0, 1, 0)).Error; err != nil {
		t.Fatalf("extend: %v", err)
	}

	sub, err = svc.ActiveSubscription(userID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sub == nil || sub.PlanName != "basic" {
		t.Fatalf("expected the active subscription, got %+v", sub)
	}
}
