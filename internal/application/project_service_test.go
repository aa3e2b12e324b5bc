package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

func TestProjectCreateMakesOwnerMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)

	p := f.project(t, owner, nil)
	require.Len(t, p.Members, 1)
	assert.Equal(t, entity.MemberOwner, p.Members[0].Role)
	assert.Equal(t, owner.ID, p.OwnerID)

	feed, err := f.projects.ActivityFeed(ctx, owner, p.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	assert.Equal(t, "project.created", feed[0].Action)
}

func TestProjectMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)
	member := f.user(t, "member", entity.RoleUser)
	outsider := f.user(t, "outsider", entity.RoleUser)
	admin := f.user(t, "admin", entity.RoleAdmin)
	p := f.project(t, owner, map[string]entity.MemberRole{member.ID: entity.MemberRegular})

	_, err := f.projects.Get(ctx, outsider, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.projects.Get(ctx, admin, p.ID)
	assert.NoError(t, err)

	_, err = f.projects.AddMember(ctx, owner, p.ID, member.ID, entity.MemberViewer)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	_, err = f.projects.AddMember(ctx, member, p.ID, outsider.ID, entity.MemberRegular)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.projects.AddMember(ctx, owner, p.ID, outsider.ID, entity.MemberOwner)
	assert.ErrorIs(t, err, ErrOwnerImmutable)

	_, err = f.projects.UpdateMember(ctx, owner, p.ID, owner.ID, entity.MemberViewer)
	assert.ErrorIs(t, err, ErrOwnerImmutable)
	_, err = f.projects.RemoveMember(ctx, admin, p.ID, owner.ID)
	assert.ErrorIs(t, err, ErrOwnerImmutable)

	p, err = f.projects.UpdateMember(ctx, owner, p.ID, member.ID, entity.MemberManager)
	require.NoError(t, err)
	assert.True(t, p.CanManage(member.ID))

	// members may leave on their own
	p, err = f.projects.RemoveMember(ctx, member, p.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, p.IsMember(member.ID))

	removed := f.emitter.named(EventMemberRemoved)
	require.Len(t, removed, 2)
	assert.Equal(t, p.ID, removed[0].Project)
	assert.Equal(t, []string{member.ID}, removed[1].Users)
}

func TestProjectListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)
	manager := f.user(t, "manager", entity.RoleUser)
	admin := f.user(t, "admin", entity.RoleAdmin)
	p := f.project(t, owner, map[string]entity.MemberRole{manager.ID: entity.MemberManager})
	f.project(t, admin, nil)

	mine, err := f.projects.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	all, err := f.projects.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	renamed := "Relaunch"
	p, err = f.projects.Update(ctx, manager, p.ID, ProjectInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", p.Name)

	assert.ErrorIs(t, f.projects.Delete(ctx, manager, p.ID), ErrForbidden)
	require.NoError(t, f.projects.Delete(ctx, owner, p.ID))
	_, err = f.projects.Get(ctx, owner, p.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
