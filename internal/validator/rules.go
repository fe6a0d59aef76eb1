package validator

import (
	"log"

	"addons_backend/internal/constants"
	"addons_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-rating-score", validateRatingScore)
	mustRegister("is-flag-reason", validateFlagReason)
	mustRegister("is-builtin-license", validateBuiltinLicense)
	mustRegister("is-addon-status", validateAddonStatus)
}

// Pointer fields are dereferenced by the validator, so nil never reaches these.

func validateRatingScore(fl validator.FieldLevel) bool {
	score := fl.Field().Int()
	return score >= 1 && score <= 5
}

func validateFlagReason(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsFlagReason(value)
}

func validateBuiltinLicense(fl validator.FieldLevel) bool {
	_, ok := constants.LicenseByBuiltin(int(fl.Field().Int()))
	return ok
}

func validateAddonStatus(fl validator.FieldLevel) bool {
	switch models.AddonStatus(fl.Field().Int()) {
	case models.AddonStatusNull, models.AddonStatusNominated, models.AddonStatusPublic,
		models.AddonStatusDisabled, models.AddonStatusDeleted:
		return true
	default:
		return false
	}
}
