package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestRatingString(t *testing.T) {
	r := &Rating{Body: strPtr("Loved it, would install again")}
	assert.Equal(t, "Loved it, ...", r.String())

	r = &Rating{Body: strPtr("Short")}
	assert.Equal(t, "Short", r.String())

	assert.Equal(t, "", (&Rating{}).String())
}

func TestRatingIsReply(t *testing.T) {
	parent := uint(4)
	assert.True(t, (&Rating{ReplyToID: &parent}).IsReply())
	assert.False(t, (&Rating{}).IsReply())
	assert.Equal(t, 0, (&Rating{}).Score())
}

func TestFlagReasonsAndStatuses(t *testing.T) {
	assert.True(t, IsFlagReason(FlagReasonOther))
	assert.False(t, IsFlagReason("review_flag_reason_boring"))

	assert.True(t, AddonStatusPublic.Valid())
	assert.True(t, AddonStatusNominated.Valid())
	assert.False(t, AddonStatusDisabled.Valid())

	assert.True(t, UserRoleAdmin.IsModerator())
	assert.False(t, UserRoleUser.IsModerator())
	assert.Equal(t, "delete_rating", ActionDeleteRating.String())
}

func TestUserWantsNotification(t *testing.T) {
	u := &User{Username: "bob", NotifyReply: false, NotifyNewReview: true}
	assert.False(t, u.WantsNotification(PermSettingReply))
	assert.True(t, u.WantsNotification(PermSettingNewReview))
	assert.Equal(t, "bob", u.Name())
}
