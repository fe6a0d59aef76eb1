package repositories_test

import (
	"testing"

	"addons_backend/internal/models"
	"addons_backend/internal/repositories"
	"addons_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSiteConfigGetSet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewSiteConfigRepository()

	v, err := repo.Get(db, models.SiteConfigNotice)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, repo.Set(db, models.SiteConfigNotice, "Maintenance tonight"))
	require.NoError(t, repo.Set(db, models.SiteConfigNotice, "Maintenance tomorrow"))
	v, err = repo.Get(db, models.SiteConfigNotice)
	require.NoError(t, err)
	assert.Equal(t, "Maintenance tomorrow", v)
}

func TestActivityAndScores(t *testing.T) {
	db := testutil.NewDB(t)
	activity := repositories.NewActivityRepository()
	scores := repositories.NewReviewerScoreRepository()

	mod := testutil.CreateUser(t, db, "mod", models.UserRoleReviewer)
	addon, _ := testutil.CreateAddon(t, db, "a")
	other, _ := testutil.CreateAddon(t, db, "b")

	require.NoError(t, activity.Create(db, &models.ActivityLog{Action: models.ActionApproveRating, UserID: mod.ID, AddonID: &addon.ID, Details: datatypes.JSON(`{"is_flagged":true}`)}))
	require.NoError(t, activity.Create(db, &models.ActivityLog{Action: models.ActionAddRating, UserID: mod.ID, AddonID: &other.ID}))

	entries, total, err := activity.List(db, repositories.ActivityFilter{AddonID: &addon.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.ActionApproveRating, entries[0].Action)
	assert.Equal(t, "mod", entries[0].User.Username)

	_, total, err = activity.List(db, repositories.ActivityFilter{Actions: []models.ActivityAction{models.ActionAddRating, models.ActionEditRating}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	total2, err := scores.TotalForUser(db, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total2)
	require.NoError(t, scores.Create(db, &models.ReviewerScore{UserID: mod.ID, AddonID: &addon.ID, Score: 1, NoteKey: models.ReviewerScoreNoteAddonReview}))
	require.NoError(t, scores.Create(db, &models.ReviewerScore{UserID: mod.ID, AddonID: &addon.ID, Score: 1, NoteKey: models.ReviewerScoreNoteAddonReview}))
	total2, err = scores.TotalForUser(db, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total2)
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUserRepository()

	u := &models.User{Email: "a@example.com", Username: "a", Role: models.UserRoleUser}
	require.NoError(t, repo.Create(db, u))
	assert.ErrorIs(t, repo.Create(db, &models.User{Email: "a@example.com", Username: "b"}), repositories.ErrUserAlreadyExists)

	require.NoError(t, repo.UpdateNotifications(db, u.ID, false, true))
	found, err := repo.FindByEmail(db, "a@example.com")
	require.NoError(t, err)
	assert.False(t, found.NotifyReply)
	assert.True(t, found.NotifyNewReview)

	_, err = repo.FindByID(db, 999)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}
