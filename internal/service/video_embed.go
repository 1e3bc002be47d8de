package service

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	videoLinePattern = regexp.MustCompile(`^\s*<?((?:https?://)?[^\s<>]+)>?\s*$`)
	videoSrcPattern  = regexp.MustCompile(`^https://(?:www\.youtube-nocookie\.com/embed/|player\.vimeo\.com/video/)`)
	videoTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`)
	listItemPattern  = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s+`)
)

type videoEmbed struct {
	Platform string
	Source   string
	EmbedURL string
}

// blogSanitizer extends the UGC policy with iframes pointing at the
// supported video players.
func blogSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("iframe")
	policy.AllowAttrs("class", "data-video-platform").OnElements("div")
	policy.AllowAttrs("src").Matching(videoSrcPattern).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "loading", "referrerpolicy").OnElements("iframe")
	return policy
}

// applyVideoEmbeds replaces lines holding only a YouTube or Vimeo link
// with an embedded player. Code blocks, quotes and list items are left as is.
func applyVideoEmbeds(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(trimmed, fence):
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, ">") || listItemPattern.MatchString(trimmed) {
			continue
		}

		match := videoLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		if embed, ok := parseVideoEmbed(match[1]); ok {
			lines[i] = embed.html()
		}
	}
	return strings.Join(lines, "\n")
}

func fenceMarker(line string) string {
	switch {
	case strings.HasPrefix(line, "```"):
		return "```"
	case strings.HasPrefix(line, "~~~"):
		return "~~~"
	}
	return ""
}

func parseVideoEmbed(raw string) (videoEmbed, bool) {
	source := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(source), "http") {
		source = "https://" + source
	}
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return videoEmbed{}, false
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be" || hostMatches(host, "youtube.com"):
		return youTubeEmbed(u, host, source)
	case hostMatches(host, "vimeo.com"):
		return vimeoEmbed(u, source)
	}
	return videoEmbed{}, false
}

func youTubeEmbed(u *url.URL, host, source string) (videoEmbed, bool) {
	path := strings.Trim(u.Path, "/")
	var id string
	if host == "youtu.be" {
		id = path
	} else if path == "watch" {
		id = u.Query().Get("v")
	} else {
		for _, prefix := range []string{"shorts/", "embed/", "live/"} {
			if strings.HasPrefix(path, prefix) {
				id = strings.TrimPrefix(path, prefix)
				break
			}
		}
	}
	id, _, _ = strings.Cut(id, "/")
	if id == "" {
		return videoEmbed{}, false
	}

	values := url.Values{}
	values.Set("rel", "0")
	values.Set("modestbranding", "1")
	if start := youTubeStart(u.Query()); start > 0 {
		values.Set("start", strconv.Itoa(start))
	}
	return videoEmbed{
		Platform: "youtube",
		Source:   source,
		EmbedURL: "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id) + "?" + values.Encode(),
	}, true
}

func youTubeStart(query url.Values) int {
	value := query.Get("start")
	if value == "" {
		value = query.Get("t")
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return seconds
	}
	total := 0
	for _, m := range videoTimePattern.FindAllStringSubmatch(value, -1) {
		n, _ := strconv.Atoi(m[1])
		switch strings.ToLower(m[2]) {
		case "h":
			total += n * 3600
		case "m":
			total += n * 60
		default:
			total += n
		}
	}
	return total
}

func vimeoEmbed(u *url.URL, source string) (videoEmbed, bool) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return videoEmbed{}, false
	}
	return videoEmbed{
		Platform: "vimeo",
		Source:   source,
		EmbedURL: "https://player.vimeo.com/video/" + id,
	}, true
}

func (e videoEmbed) html() string {
	return fmt.Sprintf(
		`<div class="video-embed" data-video-platform="%s">`+
			`<iframe src="%s" title="Embedded video" loading="lazy" allow="encrypted-media; picture-in-picture" allowfullscreen frameborder="0" referrerpolicy="strict-origin-when-cross-origin"></iframe>`+
			`</div>`,
		html.EscapeString(e.Platform),
		html.EscapeString(e.EmbedURL),
	)
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
