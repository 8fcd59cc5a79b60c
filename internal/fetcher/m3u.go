package fetcher

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"
)

var (
	reTvgName   = regexp.MustCompile(`tvg-name="([^"]*)"`)
	reTvgLogo   = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	reGroup     = regexp.MustCompile(`group-title="([^"]*)"`)
	reCommaName = regexp.MustCompile(`,([^\n\r\t]*)$`)
)

// Entry is one playlist row mapped onto guide terms: the channel name,
// logo, playback URL, and the group-title it belongs to (which becomes a
// section on import).
type Entry struct {
	Name    string
	Image   string
	URL     string
	Section string
}

var errNoName = errors.New("no name from EXTINF")

// ParseM3U reads an M3U playlist from r and returns guide entries in
// playlist order. Rows without a derivable name are skipped.
func ParseM3U(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	// Handle long lines (some M3U have very long EXTINF lines).
	const maxSize = 1024 * 1024
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxSize)

	var extinf string
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(strings.ToUpper(trimmed), "#EXTINF"):
			extinf = trimmed
		case strings.HasPrefix(trimmed, "#"):
			// Other directives (including #EXTM3U) are ignored.
		case trimmed != "":
			// URL line; a URL without a preceding EXTINF is malformed.
			if extinf == "" {
				continue
			}
			name, err := nameFromEXTINF(extinf)
			if err != nil {
				extinf = ""
				continue
			}
			entries = append(entries, Entry{
				Name:    name,
				Image:   matchFirst(reTvgLogo, extinf),
				URL:     trimmed,
				Section: matchFirst(reGroup, extinf),
			})
			extinf = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// nameFromEXTINF extracts the channel name: tvg-name, else the text
// after the last attribute comma.
func nameFromEXTINF(extinf string) (string, error) {
	if n := matchFirst(reTvgName, extinf); n != "" {
		return n, nil
	}
	if n := matchFirst(reCommaName, extinf); n != "" {
		return n, nil
	}
	return "", errNoName
}
