package application

import (
	"context"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
)

const recentActivityLimit = 10

type DashboardService struct {
	Tasks         *TaskService
	Notifications *NotificationService
	Activity      *ActivityService
}

func NewDashboardService(tasks *TaskService, notifications *NotificationService, activity *ActivityService) *DashboardService {
	return &DashboardService{Tasks: tasks, Notifications: notifications, Activity: activity}
}

type Dashboard struct {
	Tasks               repo.TaskStats     `json:"tasks"`
	Overdue             int64              `json:"overdue"`
	AssignedToMe        int64              `json:"assigned_to_me"`
	DueThisWeek         int64              `json:"due_this_week"`
	Projects            int                `json:"projects"`
	UnreadNotifications int64              `json:"unread_notifications"`
	RecentActivity      []*entity.Activity `json:"recent_activity"`
}

func (s *DashboardService) Get(ctx context.Context, actor Actor) (*Dashboard, error) {
	visible, err := s.Tasks.VisibilityFilter(ctx, actor)
	if err != nil {
		return nil, err
	}
	count := func(mut func(*repo.TaskFilter)) (int64, error) {
		f := visible
		mut(&f)
		st, err := s.Tasks.Repo.Stats(ctx, f)
		return st.Total, err
	}

	d := &Dashboard{}
	if d.Tasks, err = s.Tasks.Repo.Stats(ctx, visible); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if d.Overdue, err = count(func(f *repo.TaskFilter) { f.DueBefore, f.ExcludeDone = &now, true }); err != nil {
		return nil, err
	}
	weekEnd := now.Add(7 * 24 * time.Hour)
	dueSoon, err := count(func(f *repo.TaskFilter) { f.DueBefore, f.ExcludeDone = &weekEnd, true })
	if err != nil {
		return nil, err
	}
	d.DueThisWeek = dueSoon - d.Overdue
	if d.AssignedToMe, err = count(func(f *repo.TaskFilter) { f.AssigneeID = actor.ID }); err != nil {
		return nil, err
	}

	projects, err := s.Tasks.Projects.ListForMember(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	d.Projects = len(projects)

	if d.UnreadNotifications, err = s.Notifications.UnreadCount(ctx, actor.ID); err != nil {
		return nil, err
	}

	af := repo.ActivityFilter{Limit: recentActivityLimit}
	if !actor.IsAdmin() {
		af.ActorID = actor.ID
		af.ProjectIDs = visible.VisibleProjects
	}
	if d.RecentActivity, err = s.Activity.List(ctx, af); err != nil {
		return nil, err
	}
	return d, nil
}
