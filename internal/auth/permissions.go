package auth

import (
	"addons_backend/internal/models"
)

const (
	PermRatingsModerate = "ratings:moderate"
	PermRatingsDelete   = "ratings:delete"
	PermRatingsUndelete = "ratings:undelete"
	PermRatingsReplyAny = "ratings:reply:any"
	PermSiteNotice      = "site:notice"
)

// Permissions lists what each role may do beyond acting on its own content.
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		PermRatingsModerate,
		PermRatingsDelete,
		PermRatingsUndelete,
		PermRatingsReplyAny,
		PermSiteNotice,
	},
	models.UserRoleReviewer: {
		PermRatingsModerate,
		PermRatingsDelete,
	},
	models.UserRoleUser: {},
}

func HasPermission(role models.UserRole, permission string) bool {
	for _, p := range Permissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

func IsAdmin(u *models.User) bool {
	return u != nil && u.Role == models.UserRoleAdmin
}

// CanModerate reports whether u may approve or delete other people's ratings.
func CanModerate(u *models.User) bool {
	return u != nil && HasPermission(u.Role, PermRatingsModerate)
}

func ValidateRole(role string) bool {
	_, ok := Permissions[models.UserRole(role)]
	return ok
}
