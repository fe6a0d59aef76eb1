package models

type UserRole string
type AddonStatus int
type VersionChannel int

const (
	UserRoleUser     UserRole = "user"
	UserRoleReviewer UserRole = "reviewer"
	UserRoleAdmin    UserRole = "admin"

	AddonStatusNull      AddonStatus = 0
	AddonStatusNominated AddonStatus = 3
	AddonStatusPublic    AddonStatus = 4
	AddonStatusDisabled  AddonStatus = 5
	AddonStatusDeleted   AddonStatus = 11

	ChannelUnlisted VersionChannel = 1
	ChannelListed   VersionChannel = 2
)

// ValidAddonStatuses are the statuses whose ratings are shown and moderated.
var ValidAddonStatuses = []AddonStatus{AddonStatusNominated, AddonStatusPublic}

func (s AddonStatus) Valid() bool {
	for _, v := range ValidAddonStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsModerator reports whether the role may moderate ratings.
func (r UserRole) IsModerator() bool {
	return r == UserRoleReviewer || r == UserRoleAdmin
}
