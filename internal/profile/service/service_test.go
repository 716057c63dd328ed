package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vtk-it/declaro/internal/clock"
	"github.com/vtk-it/declaro/internal/profile/domain"
	"github.com/vtk-it/declaro/internal/profile/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Profile{}))
	return db
}

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    setupTestDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func signup(t *testing.T, svc domain.Service, email string) domain.Profile {
	t.Helper()
	profile, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    email,
		Password: "hunter2-hunter2",
		Name:     "An Peeters",
		Post:     "Fakbar",
	})
	require.NoError(t, err)
	return profile
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := newTestService(t)

	profile := signup(t, svc, "An@VTK.be")
	assert.NotZero(t, profile.ID)
	assert.Equal(t, "an@vtk.be", profile.Email, "emails are normalized to lower case")
	assert.False(t, profile.Admin)

	got, err := svc.Authenticate(context.Background(), "an@vtk.be", "hunter2-hunter2")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "an@vtk.be", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@vtk.be", "hunter2-hunter2")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name    string
		req     domain.SignupRequest
		wantErr error
	}{
		{"missing at sign", domain.SignupRequest{Email: "anvtk.be", Password: "hunter2-hunter2"}, domain.ErrInvalidEmail},
		{"no domain dot", domain.SignupRequest{Email: "an@localhost", Password: "hunter2-hunter2"}, domain.ErrInvalidEmail},
		{"short password", domain.SignupRequest{Email: "an@vtk.be", Password: "short"}, domain.ErrInvalidPassword},
		{"unknown post", domain.SignupRequest{Email: "an@vtk.be", Password: "hunter2-hunter2", Post: "Bestuur"}, domain.ErrInvalidPost},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	signup(t, svc, "an@vtk.be")

	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "AN@vtk.be",
		Password: "hunter2-hunter2",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestPasswordHashNeverStoredPlain(t *testing.T) {
	svc := newTestService(t)
	profile := signup(t, svc, "an@vtk.be")

	got, err := svc.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.PasswordHash)
	assert.NotContains(t, got.PasswordHash, "hunter2")
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(t)
	profile := signup(t, svc, "an@vtk.be")

	updated, err := svc.Update(context.Background(), domain.UpdateProfileRequest{
		ID:   profile.ID,
		Name: "An P.",
		Post: "Cultuur",
		IBAN: " BE68539007547034 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "An P.", updated.Name)
	assert.Equal(t, "Cultuur", updated.Post)
	assert.Equal(t, "BE68539007547034", updated.IBAN)

	_, err = svc.Update(context.Background(), domain.UpdateProfileRequest{ID: profile.ID, Post: "Bestuur"})
	assert.ErrorIs(t, err, domain.ErrInvalidPost)

	_, err = svc.Update(context.Background(), domain.UpdateProfileRequest{ID: snowflake.ID(12345)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetPrivileges(t *testing.T) {
	svc := newTestService(t)
	profile := signup(t, svc, "an@vtk.be")

	granted, err := svc.SetPrivileges(context.Background(), domain.SetPrivilegesRequest{
		ID:           profile.ID,
		AllowedPosts: domain.PostList{"Fakbar", "Theokot"},
	})
	require.NoError(t, err)
	assert.False(t, granted.Admin)
	assert.Equal(t, domain.PostList{"Fakbar", "Theokot"}, granted.AllowedPosts)

	// the grant list round-trips through its text column
	got, err := svc.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostList{"Fakbar", "Theokot"}, got.AllowedPosts)

	_, err = svc.SetPrivileges(context.Background(), domain.SetPrivilegesRequest{
		ID:           profile.ID,
		AllowedPosts: domain.PostList{"Niet-bestaand"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAllowedPost)

	// revoking leaves a clean slate
	revoked, err := svc.SetPrivileges(context.Background(), domain.SetPrivilegesRequest{ID: profile.ID})
	require.NoError(t, err)
	assert.False(t, revoked.Admin)
	assert.Empty(t, revoked.AllowedPosts)
}

func TestListOrderedByName(t *testing.T) {
	svc := newTestService(t)
	signup(t, svc, "b@vtk.be")
	a := signup(t, svc, "a@vtk.be")

	_, err := svc.Update(context.Background(), domain.UpdateProfileRequest{ID: a.ID, Name: "Aart", Post: "Fakbar"})
	require.NoError(t, err)

	profiles, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Aart", profiles[0].Name)
}

func TestPostListScanValue(t *testing.T) {
	var l domain.PostList
	require.NoError(t, l.Scan("Fakbar, Theokot,"))
	assert.Equal(t, domain.PostList{"Fakbar", "Theokot"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	v, err := domain.PostList{"IT", "Sport"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "IT", domain.ParsePostList(v.(string))[0])
	assert.Equal(t, "IT,Sport", v)
}
