package constants

// License is one of the built-in licenses an addon version can pick.
type License struct {
	ID              int    `json:"id"`
	Builtin         int    `json:"builtin"`
	Name            string `json:"name"`
	URL             string `json:"url,omitempty"`
	Icons           string `json:"icons,omitempty"`
	SomeRights      bool   `json:"some_rights"`
	OnForm          bool   `json:"on_form"`
	CreativeCommons bool   `json:"creative_commons"`
}

func cc(id, builtin int, name, url, icons string) License {
	return License{
		ID:              id,
		Builtin:         builtin,
		Name:            name,
		URL:             url,
		Icons:           icons,
		SomeRights:      true,
		OnForm:          true,
		CreativeCommons: true,
	}
}

var (
	LicenseCopyright = License{ID: 1, Builtin: 11, Name: "All Rights Reserved", Icons: "copyr", OnForm: true, CreativeCommons: true}
	LicenseCCBy      = cc(2, 12, "Creative Commons Attribution 3.0", "http://creativecommons.org/licenses/by/3.0/", "cc-attrib")
	LicenseCCByNC    = cc(3, 13, "Creative Commons Attribution-NonCommercial 3.0", "http://creativecommons.org/licenses/by-nc/3.0/", "cc-attrib cc-noncom")
	LicenseCCByNCND  = cc(4, 14, "Creative Commons Attribution-NonCommercial-NoDerivs 3.0", "http://creativecommons.org/licenses/by-nc-nd/3.0/", "cc-attrib cc-noncom cc-noderiv")
	LicenseCCByNCSA  = cc(5, 15, "Creative Commons Attribution-NonCommercial-Share Alike 3.0", "http://creativecommons.org/licenses/by-nc-sa/3.0/", "cc-attrib cc-noncom cc-share")
	LicenseCCByND    = cc(6, 16, "Creative Commons Attribution-NoDerivs 3.0", "http://creativecommons.org/licenses/by-nd/3.0/", "cc-attrib cc-noderiv")
	LicenseCCBySA    = cc(7, 17, "Creative Commons Attribution-ShareAlike 3.0", "http://creativecommons.org/licenses/by-sa/3.0/", "cc-attrib cc-share")
	// Same label as LicenseCopyright but not counted as Creative Commons.
	LicenseCopyrightAR = License{ID: 8, Builtin: 18, Name: "All Rights Reserved", Icons: "copyr", OnForm: true}
)

var allLicenses = []License{
	LicenseCopyright,
	LicenseCCBy,
	LicenseCCByNC,
	LicenseCCByNCND,
	LicenseCCByNCSA,
	LicenseCCByND,
	LicenseCCBySA,
	LicenseCopyrightAR,
}

var licensesByBuiltin = func() map[int]License {
	m := make(map[int]License, len(allLicenses))
	for _, l := range allLicenses {
		m[l.Builtin] = l
	}
	return m
}()

// AllLicenses returns the built-in licenses in id order.
func AllLicenses() []License {
	out := make([]License, len(allLicenses))
	copy(out, allLicenses)
	return out
}

func LicenseByBuiltin(builtin int) (License, bool) {
	l, ok := licensesByBuiltin[builtin]
	return l, ok
}

func LicenseByID(id int) (License, bool) {
	for _, l := range allLicenses {
		if l.ID == id {
			return l, true
		}
	}
	return License{}, false
}
