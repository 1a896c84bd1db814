package quota

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio-backend/internal/models"
)

// DefaultTaskLimit applies to users without a subscription, and to
// subscriptions whose plan carries no usable limit.
const DefaultTaskLimit = 3

type QuotaService struct {
	DB *gorm.DB
}

func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{DB: db}
}

type CheckResult struct {
	CanAddTask bool
	Error      string
}

// TasksCountForCurrentMonth counts tasks the user created in the current
// calendar month.
func (s *QuotaService) TasksCountForCurrentMonth(userID uuid.UUID, now time.Time) (int64, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var count int64
	err := s.DB.Model(&models.Task{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, monthStart, monthEnd).
		Count(&count).Error
	return count, err
}

// CheckTaskLimit decides whether the user may create another task this
// month. A subscription raises the limit to its plan's MaximumTasks; a
// subscription without a usable limit falls back to the default.
func (s *QuotaService) CheckTaskLimit(userID uuid.UUID, sub *models.Subscription) (CheckResult, error) {
	count, err := s.TasksCountForCurrentMonth(userID, time.Now())
	if err != nil {
		return CheckResult{}, err
	}

	maxTasks := DefaultTaskLimit
	if sub != nil && sub.MaximumTasks > 0 {
		maxTasks = sub.MaximumTasks
	}

	if count >= int64(maxTasks) {
		return CheckResult{
			CanAddTask: false,
			Error: fmt.Sprintf(
				"You have reached your task limit of %d tasks for this month. Please upgrade your subscription to add more tasks.",
				maxTasks),
		}, nil
	}

	return CheckResult{CanAddTask: true}, nil
}

// ActiveSubscription returns the user's subscription if one exists and has
// not expired, else nil.
func (s *QuotaService) ActiveSubscription(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.DB.Where("user_id = ?", userID).First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sub.ExpiryDate.IsZero() && sub.ExpiryDate.Before(time.Now()) {
		return nil, nil
	}
	return &sub, nil
}
