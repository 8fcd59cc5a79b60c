package models

import "strings"

// Channel is a single guide entry belonging to one section. URL is the
// direct playback link; the sentinel "#" (or an empty URL) marks a
// channel that can only be watched through the companion app.
type Channel struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	AppURL      string `json:"appUrl,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Order       int    `json:"order,omitempty"`
	SectionID   string `json:"sectionId"`
}

// Playback actions.
const (
	ActionPlay    = "play"    // open the channel URL directly
	ActionInstall = "install" // route to the app installer prompt
)

// Playback is the routing decision for a channel click.
type Playback struct {
	Action string `json:"action"`
	URL    string `json:"url"`
}

// Playable reports whether the channel has a direct playback link.
func (c Channel) Playable() bool {
	u := strings.TrimSpace(c.URL)
	return u != "" && u != "#"
}

// Playback resolves where a click on the channel should go. Unplayable
// channels route to the first available installer link.
func (c Channel) Playback() Playback {
	if c.Playable() {
		return Playback{Action: ActionPlay, URL: strings.TrimSpace(c.URL)}
	}
	install := c.DownloadURL
	if install == "" {
		install = c.AppURL
	}
	if install == "" {
		install = DefaultInstallURL
	}
	return Playback{Action: ActionInstall, URL: install}
}

// SortOrder returns the ordering key, treating an unset order as 1.
func (c Channel) SortOrder() int {
	if c.Order == 0 {
		return 1
	}
	return c.Order
}
