package zillow

import (
	"rentscout/lib/textutil"
	"strings"

	"github.com/antzucaro/matchr"
)

// Click navigation can land on the wrong listing when the card grid
// reflows mid-click, so the page that comes back is checked against
// the card it was opened from. Exact comparison is too strict, the two
// surfaces abbreviate addresses differently ("St" vs "Street",
// trailing unit numbers).
const addressMatchThreshold = 0.85

// VerifyAddress reports whether got plausibly names the same property
// as expected. Either side being unknown is treated as a pass, absence
// of an address is not evidence of a mismatch.
func VerifyAddress(expected, got string) bool {
	if expected == "" || expected == unknown || got == "" || got == unknown {
		return true
	}
	left := strings.ToLower(textutil.NormalizeSpace(expected))
	right := strings.ToLower(textutil.NormalizeSpace(got))
	if left == right {
		return true
	}
	return matchr.JaroWinkler(left, right, false) >= addressMatchThreshold
}
