package models

// DefaultInstallURL is the installer link used when a channel carries no
// app or download URL of its own.
const DefaultInstallURL = "https://play.google.com/store/apps/details?id=com.xpola.player"

// DefaultCatalog returns the built-in catalog used when neither the
// remote store nor the cache can supply data. Fresh slices every call so
// callers may mutate the result.
func DefaultCatalog() ([]Section, []Channel) {
	sections := []Section{
		{
			ID:    "default-1",
			Name:  "beIN Sports Channels",
			Order: 1,
		},
	}
	channels := []Channel{
		{
			ID:          "default-1",
			Name:        "bein sport 1",
			Image:       "https://via.placeholder.com/200x100/2F2562/FFFFFF?text=BEIN+1",
			URL:         "#",
			AppURL:      DefaultInstallURL,
			DownloadURL: DefaultInstallURL,
			Order:       1,
			SectionID:   "default-1",
		},
		{
			ID:          "default-2",
			Name:        "bein sport 2",
			Image:       "https://via.placeholder.com/200x100/2F2562/FFFFFF?text=BEIN+2",
			URL:         "#",
			AppURL:      DefaultInstallURL,
			DownloadURL: DefaultInstallURL,
			Order:       2,
			SectionID:   "default-1",
		},
	}
	return sections, channels
}
