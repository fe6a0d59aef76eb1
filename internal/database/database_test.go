package database

import (
	"testing"

	"addons_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orphanRef struct {
	ID      uint `gorm:"primaryKey"`
	OwnerID uint `gorm:"ref:owners.code"`
}

type owner struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:20"`
}

type badTranslation struct {
	ID     uint   `gorm:"primaryKey;autoIncrement:false"`
	Locale string `gorm:"primaryKey"`
}

type pointsAtBadTranslation struct {
	ID     uint  `gorm:"primaryKey"`
	NameID *uint `gorm:"ref:bad_translations.id"`
}

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := OpenSQLite("file:migrate?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	// Running twice is harmless.
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable("reviews"))
	assert.True(t, db.Migrator().HasTable("reviews_moderation_flags"))
	assert.True(t, db.Migrator().HasIndex(&models.Rating{}, "latest_reviews"))

	addon := models.Addon{Slug: "a", Status: models.AddonStatusPublic}
	user := models.User{Email: "u@x", Username: "u"}
	require.NoError(t, db.Create(&addon).Error)
	require.NoError(t, db.Create(&user).Error)
	version := models.Version{AddonID: addon.ID, Version: "1.0"}
	require.NoError(t, db.Create(&version).Error)

	score := 4
	first := models.Rating{AddonID: addon.ID, VersionID: &version.ID, UserID: user.ID, Rating: &score}
	require.NoError(t, db.Create(&first).Error)
	dup := models.Rating{AddonID: addon.ID, VersionID: &version.ID, UserID: user.ID, Rating: &score}
	assert.ErrorIs(t, db.Create(&dup).Error, gorm.ErrDuplicatedKey)

	// Deleted ratings do not block a new one.
	require.NoError(t, db.Model(&first).UpdateColumn("deleted", true).Error)
	dup = models.Rating{AddonID: addon.ID, VersionID: &version.ID, UserID: user.ID, Rating: &score}
	require.NoError(t, db.Create(&dup).Error)

	reply := models.Rating{AddonID: addon.ID, VersionID: &version.ID, UserID: user.ID, ReplyToID: &first.ID}
	assert.NoError(t, db.Create(&reply).Error)
}

func TestCheckModelsSkipsTranslations(t *testing.T) {
	db, err := OpenSQLite("file:checks?mode=memory&cache=shared")
	require.NoError(t, err)

	errs := CheckModels(db, models.All()...)
	assert.Equal(t, 0, errs.Len(), errs.Messages())
	assert.NoError(t, errs.Err())

	errs = CheckModels(db, &badTranslation{}, &pointsAtBadTranslation{})
	assert.Equal(t, 0, errs.Len())
}

func TestCheckModelsReportsNonUniqueTarget(t *testing.T) {
	db, err := OpenSQLite("file:checks_bad?mode=memory&cache=shared")
	require.NoError(t, err)

	errs := CheckModels(db, &owner{}, &orphanRef{})
	require.Equal(t, 1, errs.Len())
	assert.Contains(t, errs.Messages()[0], "Field 'code' under model 'owner' must have a unique=True constraint.")

	errs = CheckModels(db, &orphanRef{})
	require.Equal(t, 1, errs.Len())
	assert.Contains(t, errs.Messages()[0], "unknown table 'owners'")
}

func TestErrorCollectionAdd(t *testing.T) {
	c := &ErrorCollection{}
	c.Add("Addon", "Field 'id' under model 'Translation' must have a unique=True constraint.")
	c.Add("Addon", "Field 'id' under model 'PurifiedTranslation' must have a unique=True constraint.")
	assert.Equal(t, 0, c.Len())
	c.Add("Addon", "Field 'slug' under model 'Addon' must have a unique=True constraint.")
	assert.Equal(t, 1, c.Len())
	assert.Error(t, c.Err())
}
