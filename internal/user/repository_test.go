package user

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/shared"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Invitation{}))
	return db
}

func TestGORMRepository_CreateAndFind(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()

	u := &User{FirebaseUID: "u1", Email: "  Ana@Example.com "}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, shared.RoleWorker, u.Role)

	found, err := repo.FindByFirebaseUID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", found.Email)
	assert.Equal(t, shared.RoleWorker, found.Role)
	assert.Empty(t, found.Invitations)
}

func TestGORMRepository_FindNotFound(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))

	_, err := repo.FindByFirebaseUID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGORMRepository_CreateDuplicate(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &User{FirebaseUID: "u1", Email: "a@example.com"}))
	err := repo.Create(ctx, &User{FirebaseUID: "u1", Email: "b@example.com"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestGORMRepository_RejectsInvalidRole(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))

	err := repo.Create(context.Background(), &User{FirebaseUID: "u1", Email: "a@example.com", Role: "superuser"})
	assert.Error(t, err)
}

func TestGORMRepository_UpdateFields(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()
	u := &User{FirebaseUID: "u1", Email: "a@example.com", Role: shared.RoleOwner}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.UpdateFields(ctx, u, map[string]interface{}{"photo_url": "https://cdn/a.png"}))

	found, err := repo.FindByFirebaseUID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, found.PhotoURL)
	assert.Equal(t, "https://cdn/a.png", *found.PhotoURL)
	assert.Equal(t, shared.RoleOwner, found.Role)
}

func TestGORMRepository_Invitations(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()
	u := &User{FirebaseUID: "owner", Email: "owner@example.com", Role: shared.RoleOwner}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.AddInvitation(ctx, &Invitation{InviterID: u.ID, Email: "b@example.com"}))
	require.NoError(t, repo.AddInvitation(ctx, &Invitation{InviterID: u.ID, Email: "a@example.com"}))
	err := repo.AddInvitation(ctx, &Invitation{InviterID: u.ID, Email: "B@example.com"})
	assert.ErrorIs(t, err, common.ErrConflict)

	found, err := repo.FindByFirebaseUID(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, found.Invitations, 2)
	assert.Equal(t, "b@example.com", found.Invitations[0].Email)
	assert.Equal(t, "a@example.com", found.Invitations[1].Email)
}
