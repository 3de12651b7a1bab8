package metadata

import (
	"regexp"
	"strings"
)

// Hosts that indicate a Russian-platform presence. A link to one of these is
// treated as a hard signal, stronger than a model judgment.
var flaggedPlatformHosts = []string{
	"vk.com",
	"vk.ru",
	"ok.ru",
	"music.yandex.ru",
	"music.yandex.com",
	"zvuk.com",
	"sberzvuk.com",
	"boom.ru",
	"rutube.ru",
}

// Russian phone prefixes and mail providers in contact blocks.
var flaggedContactPattern = regexp.MustCompile(`(?i)(\+7[\s\-()]?\d{3}[\s\-()]?\d{3}[\s\-()]?\d{2}[\s\-()]?\d{2}|[\w.\-]+@(mail\.ru|yandex\.ru|rambler\.ru|bk\.ru|list\.ru))`)

var linkPattern = regexp.MustCompile(`https?://[^\s"'<>)]+`)

func hasFlaggedPlatformLink(links []string) bool {
	for _, link := range links {
		lower := strings.ToLower(link)
		for _, host := range flaggedPlatformHosts {
			if strings.Contains(lower, host) {
				return true
			}
		}
	}
	return false
}

func hasFlaggedContact(text string) bool {
	return flaggedContactPattern.MatchString(text)
}

func extractLinks(text string) []string {
	return linkPattern.FindAllString(text, -1)
}
