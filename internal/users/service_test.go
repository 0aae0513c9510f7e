package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adminpanel/adminpanel/internal/shared"
)

func newTestService(repo RepositoryPort) *Service {
	return NewService(repo, shared.RoleUser).WithHashCost(bcrypt.MinCost)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestCreateHashesAndNormalises(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	user, err := svc.Create(context.Background(), CreateInput{Name: " Ada ", Email: "ADA@example.com", Password: "password1", Role: shared.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, shared.RoleAdmin, user.RoleName)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password1")))
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "B", Email: "A@Example.com", Password: "password2"})
	assert.ErrorIs(t, err, shared.ErrDuplicateEmail)
}

func TestCreateUnknownRole(t *testing.T) {
	svc := newTestService(newMemRepo())
	_, err := svc.Create(context.Background(), CreateInput{Name: "A", Email: "a@example.com", Password: "password1", Role: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRegisterUsesDefaultRole(t *testing.T) {
	svc := newTestService(newMemRepo())
	user, err := svc.Register(context.Background(), CreateInput{Name: "A", Email: "a@example.com", Password: "password1", Role: shared.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleUser, user.RoleName)
}

func TestUpdateKeepsPasswordWhenEmpty(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	user, err := svc.Create(ctx, CreateInput{Name: "A", Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, user.ID, UpdateInput{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, updated.PasswordHash)

	updated, err = svc.Update(ctx, user.ID, UpdateInput{Name: "B", Email: "b@example.com", Password: "password2"})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("password2")))
}

func TestListReturnsPageAndTotal(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Create(ctx, CreateInput{Name: "x", Email: email, Password: "password1"})
		require.NoError(t, err)
	}
	users, total, err := svc.List(ctx, shared.Page{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, int64(3), total)
}

func TestDeleteRetiresPostsBeforeRemovingUser(t *testing.T) {
	assert.Contains(t, retireAuthoredPosts, "SET deleted_at = NOW()")
	assert.Contains(t, retireAuthoredPosts, "author_id = $1")
	assert.NotContains(t, retireAuthoredPosts, "DELETE")
	assert.Contains(t, deleteUser, "DELETE FROM users")
}
