package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestRegister_DefaultsToAgent(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.Register(context.Background(), RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, user.Role)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
}

func TestRegister_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Name: "Root", Email: "root@x.com", Password: "hunter22", Role: domain.RoleAdmin})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "hunter22", Role: "OWNER"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "hunter22"})
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, RegisterInput{Name: "Sam", Email: "SAM@x.com", Password: "hunter22"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered, err := f.auth.Register(ctx, RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "hunter22"})
	require.NoError(t, err)

	session, err := f.auth.Login(ctx, "sam@x.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, session.User.ID)

	claims, err := f.auth.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, domain.RoleAgent, claims.Role)

	_, err = f.auth.Login(ctx, "sam@x.com", "wrong-password")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = f.auth.Login(ctx, "nobody@x.com", "hunter22")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestProvisionAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, created, err := f.auth.ProvisionAdmin(ctx, "Root", "root@x.com", "s3cretpass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	again, created, err := f.auth.ProvisionAdmin(ctx, "Root", "root@x.com", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	agent, err := f.auth.Register(ctx, RegisterInput{Name: "Sam", Email: "sam@x.com", Password: "hunter22"})
	require.NoError(t, err)
	promoted, created, err := f.auth.ProvisionAdmin(ctx, "Sam", "sam@x.com", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, agent.ID, promoted.ID)

	stored, err := f.store.Users().GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
}

func TestListUsers_RoleFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "a@x.com", domain.RoleAgent)
	f.user(t, "b@x.com", domain.RoleAgent)
	f.user(t, "root@x.com", domain.RoleAdmin)

	agent := domain.RoleAgent
	agents, err := f.auth.ListUsers(ctx, &agent)
	require.NoError(t, err)
	assert.Len(t, agents, 2)

	all, err := f.auth.ListUsers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
