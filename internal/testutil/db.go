// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"addons_backend/internal/database"
	"addons_backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Email:           username + "@example.com",
		Username:        username,
		Role:            role,
		NotifyReply:     true,
		NotifyNewReview: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateAddon makes a public addon with one listed version, authored by authors.
func CreateAddon(t testing.TB, db *gorm.DB, slug string, authors ...*models.User) (*models.Addon, *models.Version) {
	t.Helper()
	a := &models.Addon{Slug: slug, DefaultName: strings.ToUpper(slug[:1]) + slug[1:], Status: models.AddonStatusPublic}
	require.NoError(t, db.Create(a).Error)
	for i, u := range authors {
		require.NoError(t, db.Create(&models.AddonUser{AddonID: a.ID, UserID: u.ID, Position: i}).Error)
	}
	return a, CreateVersion(t, db, a, "1.0", models.ChannelListed)
}

func CreateVersion(t testing.TB, db *gorm.DB, a *models.Addon, version string, channel models.VersionChannel) *models.Version {
	t.Helper()
	v := &models.Version{AddonID: a.ID, Version: version, Channel: channel}
	require.NoError(t, db.Create(v).Error)
	return v
}

// CreateRating inserts a rating directly, bypassing the service pipeline.
func CreateRating(t testing.TB, db *gorm.DB, a *models.Addon, v *models.Version, u *models.User, score int, body string) *models.Rating {
	t.Helper()
	r := &models.Rating{AddonID: a.ID, UserID: u.ID, Rating: &score}
	if v != nil {
		r.VersionID = &v.ID
	}
	if body != "" {
		r.Body = &body
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func CreateReply(t testing.TB, db *gorm.DB, parent *models.Rating, u *models.User, body string) *models.Rating {
	t.Helper()
	r := &models.Rating{AddonID: parent.AddonID, VersionID: parent.VersionID, UserID: u.ID, ReplyToID: &parent.ID, Body: &body}
	require.NoError(t, db.Create(r).Error)
	return r
}
