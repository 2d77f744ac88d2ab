package render

import "strings"

// markers that show up in the target's captcha / press-and-hold
// interstitials rather than in real listing markup
var challengeMarkers = []string{
	"px-captcha",
	"perimeterx",
	"press & hold",
	"press &amp; hold",
	"press and hold to confirm",
}

func DetectChallenge(html string) bool {
	lowered := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
