package models

import "testing"

func TestChannelPlayable(t *testing.T) {
	tests := []struct {
		url      string
		playable bool
	}{
		{"http://stream.example.com/live.m3u8", true},
		{"", false},
		{"#", false},
		{"  #  ", false},
		{"   ", false},
		{" http://stream.example.com/live.m3u8 ", true},
	}

	for _, test := range tests {
		ch := Channel{URL: test.url}
		if got := ch.Playable(); got != test.playable {
			t.Errorf("Playable() with url=%q = %v, expected %v", test.url, got, test.playable)
		}
	}
}

func TestChannelPlayback(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		action  string
		url     string
	}{
		{
			name:    "direct stream plays",
			channel: Channel{URL: "http://stream.example.com/live.m3u8", DownloadURL: "http://dl.example.com"},
			action:  ActionPlay,
			url:     "http://stream.example.com/live.m3u8",
		},
		{
			name:    "stream url is trimmed",
			channel: Channel{URL: " http://stream.example.com/live.m3u8 "},
			action:  ActionPlay,
			url:     "http://stream.example.com/live.m3u8",
		},
		{
			name:    "hash sentinel routes to download url",
			channel: Channel{URL: "#", DownloadURL: "http://dl.example.com", AppURL: "http://app.example.com"},
			action:  ActionInstall,
			url:     "http://dl.example.com",
		},
		{
			name:    "app url when download url is empty",
			channel: Channel{URL: "", AppURL: "http://app.example.com"},
			action:  ActionInstall,
			url:     "http://app.example.com",
		},
		{
			name:    "built-in installer when nothing else is set",
			channel: Channel{URL: "#"},
			action:  ActionInstall,
			url:     DefaultInstallURL,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pb := test.channel.Playback()
			if pb.Action != test.action {
				t.Errorf("Playback().Action = %q, expected %q", pb.Action, test.action)
			}
			if pb.URL != test.url {
				t.Errorf("Playback().URL = %q, expected %q", pb.URL, test.url)
			}
		})
	}
}

func TestChannelSortOrder(t *testing.T) {
	if got := (Channel{Order: 0}).SortOrder(); got != 1 {
		t.Errorf("SortOrder() with zero order = %d, expected 1", got)
	}
	if got := (Channel{Order: 5}).SortOrder(); got != 5 {
		t.Errorf("SortOrder() with order 5 = %d, expected 5", got)
	}
}
