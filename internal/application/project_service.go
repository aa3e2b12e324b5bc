package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
)

type ProjectService struct {
	Repo     repo.ProjectRepository
	Users    repo.UserRepository
	Notify   *NotificationService
	Activity *ActivityService
	Mail     *MailOutbox
	Emitter  Emitter
	Logger   *logrus.Logger
}

func NewProjectService(r repo.ProjectRepository, users repo.UserRepository, notify *NotificationService, activity *ActivityService, mail *MailOutbox, emitter Emitter, logger *logrus.Logger) *ProjectService {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &ProjectService{Repo: r, Users: users, Notify: notify, Activity: activity, Mail: mail, Emitter: emitter, Logger: logger}
}

func (s *ProjectService) load(ctx context.Context, id string) (*entity.Project, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

// Get returns the project if actor is a member or an admin.
func (s *ProjectService) Get(ctx context.Context, actor Actor, id string) (*entity.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !p.IsMember(actor.ID) {
		return nil, ErrForbidden
	}
	return p, nil
}

// IsMember backs the relay's project:join check.
func (s *ProjectService) IsMember(ctx context.Context, userID, projectID string) (bool, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return false, err
	}
	return p.IsMember(userID), nil
}

// MemberProjectIDs lists the ids of projects userID belongs to.
func (s *ProjectService) MemberProjectIDs(ctx context.Context, userID string) ([]string, error) {
	ps, err := s.Repo.ListForMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *ProjectService) List(ctx context.Context, actor Actor) ([]*entity.Project, error) {
	if actor.IsAdmin() {
		return s.Repo.ListForMember(ctx, "")
	}
	return s.Repo.ListForMember(ctx, actor.ID)
}

type ProjectInput struct {
	Name        *string
	Description *string
	Status      *entity.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
}

func (in ProjectInput) apply(p *entity.Project) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
}

// Create makes actor the owner and first member of a new project.
func (s *ProjectService) Create(ctx context.Context, actor Actor, in ProjectInput) (*entity.Project, error) {
	now := time.Now().UTC()
	p := &entity.Project{
		OwnerID: actor.ID,
		Status:  entity.ProjectActive,
		Members: []entity.Member{{UserID: actor.ID, Role: entity.MemberOwner, JoinedAt: now}},
	}
	in.apply(p)
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, entity.Activity{
		ActorID:   actor.ID,
		ProjectID: p.ID,
		Action:    "project.created",
		Message:   fmt.Sprintf("created project %q", p.Name),
	})
	return p, nil
}

func (s *ProjectService) manageable(ctx context.Context, actor Actor, id string) (*entity.Project, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !p.CanManage(actor.ID) {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, actor Actor, id string, in ProjectInput) (*entity.Project, error) {
	p, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, entity.Activity{
		ActorID:   actor.ID,
		ProjectID: p.ID,
		Action:    "project.updated",
		Message:   fmt.Sprintf("updated project %q", p.Name),
	})
	s.Emitter.ToProject(p.ID, EventProjectUpdate, p)
	for _, uid := range p.MemberIDs() {
		s.Notify.Notify(ctx, entity.Notification{
			RecipientID: uid,
			SenderID:    actor.ID,
			Type:        entity.NotifyProjectUpdated,
			Title:       "Project updated",
			Message:     fmt.Sprintf("%q was updated", p.Name),
			ProjectID:   p.ID,
		})
	}
	return p, nil
}

// Delete is allowed for the owner or an admin.
func (s *ProjectService) Delete(ctx context.Context, actor Actor, id string) error {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && p.OwnerID != actor.ID {
		return ErrForbidden
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Activity.Record(ctx, entity.Activity{
		ActorID:   actor.ID,
		ProjectID: id,
		Action:    "project.deleted",
		Message:   fmt.Sprintf("deleted project %q", p.Name),
	})
	s.Emitter.ToProject(id, EventProjectUpdate, map[string]any{"id": id, "deleted": true})
	return nil
}

func (s *ProjectService) AddMember(ctx context.Context, actor Actor, id, userID string, role entity.MemberRole) (*entity.Project, error) {
	if role == entity.MemberOwner {
		return nil, ErrOwnerImmutable
	}
	p, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.IsMember(userID) {
		return nil, ErrAlreadyMember
	}
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Members = append(p.Members, entity.Member{UserID: userID, Role: role, JoinedAt: time.Now().UTC()})
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.Activity.Record(ctx, entity.Activity{
		ActorID:   actor.ID,
		ProjectID: p.ID,
		Action:    "project.member_added",
		Message:   fmt.Sprintf("added %s as %s", u.Name, role),
		Metadata:  map[string]any{"user_id": userID, "role": role},
	})
	s.Emitter.ToProject(p.ID, EventMemberAdded, map[string]any{"project_id": p.ID, "user_id": userID, "role": role})
	s.Notify.Notify(ctx, entity.Notification{
		RecipientID: userID,
		SenderID:    actor.ID,
		Type:        entity.NotifyProjectInvite,
		Title:       "Added to project",
		Message:     fmt.Sprintf("You were added to %q as %s", p.Name, role),
		ProjectID:   p.ID,
	})
	if userID != actor.ID {
		s.Mail.ProjectInvite(ctx, u, s.actorName(ctx, actor.ID), p, role)
	}
	return p, nil
}

func (s *ProjectService) UpdateMember(ctx context.Context, actor Actor, id, userID string, role entity.MemberRole) (*entity.Project, error) {
	p, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	m, ok := p.Member(userID)
	if !ok {
		return nil, ErrNotMember
	}
	if m.Role == entity.MemberOwner || role == entity.MemberOwner {
		return nil, ErrOwnerImmutable
	}
	m.Role = role
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, entity.Activity{
		ActorID:   actor.ID,
		ProjectID: p.ID,
		Action:    "project.member_updated",
		Message:   fmt.Sprintf("changed a member role to %s", role),
		Metadata:  map[string]any{"user_id": userID, "role": role},
	})
	s.Emitter.ToProject(p.ID, EventProjectUpdate, p)
	return p, nil
}

// RemoveMember lets managers remove others and any member leave.
func (s *ProjectService) RemoveMember(ctx context.Context, actor Actor, id, userID string) (*entity.Project, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != userID && !actor.IsAdmin() && !p.CanManage(actor.ID) {
		return nil, ErrForbidden
	}
	if userID == p.OwnerID {
		return nil, ErrOwnerImmutable
	}
	if !p.RemoveMember(userID) {
		return nil, ErrNotMember
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, entity.Activity{
		ActorID:   actor.ID,
		ProjectID: p.ID,
		Action:    "project.member_removed",
		Message:   "removed a member",
		Metadata:  map[string]any{"user_id": userID},
	})
	payload := map[string]any{"project_id": p.ID, "user_id": userID}
	s.Emitter.ToProject(p.ID, EventMemberRemoved, payload)
	// the removed user may no longer be in the project room
	s.Emitter.ToUsers([]string{userID}, "", EventMemberRemoved, payload)
	return p, nil
}

func (s *ProjectService) ActivityFeed(ctx context.Context, actor Actor, id string, limit int) ([]*entity.Activity, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.Activity.List(ctx, repo.ActivityFilter{ProjectID: id, Limit: limit})
}

func (s *ProjectService) actorName(ctx context.Context, id string) string {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.Name
}
