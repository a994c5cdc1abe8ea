package profile

// overlayShared computes the effective display attributes of an individual
// profile under its team's shared branding. Only company, theme color, logo
// and cover cascade; a non-empty team value wins, everything else keeps the
// individual value. The input profiles are not mutated and the overlay is
// never persisted.
func overlayShared(individual, shared *Profile) *Profile {
	effective := *individual
	if shared.Company != "" {
		effective.Company = shared.Company
	}
	if shared.ThemeColor != "" {
		effective.ThemeColor = shared.ThemeColor
	}
	if shared.Logo != "" {
		effective.Logo = shared.Logo
	}
	if shared.Cover != "" {
		effective.Cover = shared.Cover
	}
	return &effective
}
