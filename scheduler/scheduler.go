package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"hamrotask/logging"
	"hamrotask/model"
	"hamrotask/realtime"
	"hamrotask/services"
)

const dueSoonWindow = 24 * time.Hour

// Scheduler runs the periodic sweeps: due-soon task reminders and
// subscription expiry.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
	hub  *realtime.Hub
}

func New(db *gorm.DB, hub *realtime.Hub) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		db:   db,
		hub:  hub,
	}
}

// Start registers the sweeps and starts the cron loop. Both sweeps run
// hourly; each is also run once at boot so a restarted server does not
// wait an hour to catch up.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.SweepDueTasks); err != nil {
		return fmt.Errorf("register due task sweep: %w", err)
	}
	if _, err := s.cron.AddFunc("@hourly", s.SweepExpiredSubscriptions); err != nil {
		return fmt.Errorf("register subscription sweep: %w", err)
	}
	s.cron.Start()

	go func() {
		s.SweepDueTasks()
		s.SweepExpiredSubscriptions()
	}()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepDueTasks notifies assignees of tasks due within the next 24
// hours. Each task+assignee pair is reminded at most once: an existing
// due notification for the pair suppresses a second one.
func (s *Scheduler) SweepDueTasks() {
	now := time.Now()
	deadline := now.Add(dueSoonWindow)

	var tasks []model.Task
	err := s.db.Where("due_date IS NOT NULL AND due_date > ? AND due_date <= ?", now, deadline).
		Find(&tasks).Error
	if err != nil {
		logging.Logger.Error("Due task sweep failed", "error", err)
		return
	}

	reminded := 0
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		var assigneeIDs []string
		err := s.db.Model(&model.TaskAssignee{}).Where("task_id = ?", task.TaskID).
			Pluck("user_id", &assigneeIDs).Error
		if err != nil {
			logging.Logger.Error("Due task sweep failed", "taskId", task.TaskID, "error", err)
			continue
		}

		for _, userID := range assigneeIDs {
			var already int64
			s.db.Model(&model.Notification{}).
				Where("user_id = ? AND type = ? AND resource_id = ?", userID, model.NotificationTaskDue, task.TaskID).
				Count(&already)
			if already > 0 {
				continue
			}

			services.Notify(s.db, s.hub, userID, model.NotificationTaskDue,
				"Task due soon",
				fmt.Sprintf("%q is due %s", task.Title, task.DueDate.Format("Jan 2 15:04 MST")),
				"task", task.TaskID)
			reminded++
		}
	}

	if reminded > 0 {
		logging.Logger.Info("Due task sweep done", "tasks", len(tasks), "reminders", reminded)
	}
}

// SweepExpiredSubscriptions drops lapsed paid workspaces back to the
// free plan and tells the owners.
func (s *Scheduler) SweepExpiredSubscriptions() {
	now := time.Now()

	var subs []model.Subscription
	err := s.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		model.SubscriptionActive, now).Find(&subs).Error
	if err != nil {
		logging.Logger.Error("Subscription sweep failed", "error", err)
		return
	}

	for _, sub := range subs {
		err := s.db.Model(&model.Subscription{}).
			Where("subscription_id = ?", sub.SubscriptionID).
			Updates(map[string]interface{}{
				"plan_code":  "free",
				"status":     model.SubscriptionActive,
				"expires_at": nil,
				"updated_at": now,
			}).Error
		if err != nil {
			logging.Logger.Error("Subscription sweep failed", "subscriptionId", sub.SubscriptionID, "error", err)
			continue
		}

		var ownerIDs []string
		s.db.Model(&model.WorkspaceMember{}).
			Where("workspace_id = ? AND role = ?", sub.WorkspaceID, model.RoleOwner).
			Pluck("user_id", &ownerIDs)
		services.NotifyMany(s.db, s.hub, ownerIDs, model.NotificationPayment,
			"Subscription expired",
			fmt.Sprintf("Your %s plan has expired, the workspace is back on the free plan", sub.PlanCode),
			"payment", sub.SubscriptionID)

		logging.Logger.Info("Subscription expired", "workspaceId", sub.WorkspaceID, "plan", sub.PlanCode)
	}
}
