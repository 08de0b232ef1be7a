package ops

import (
	"github.com/hpungsan/scribe/internal/post"
)

// AdminListPath is where successful mutations redirect to.
const AdminListPath = "/posts/admin"

// Intent discriminates the mutation requested by a form submission.
type Intent string

const (
	IntentNone   Intent = ""       // absent: create or update, chosen by target
	IntentCreate Intent = "create" // create or update, chosen by target
	IntentUpdate Intent = "update" // create or update, chosen by target
	IntentDelete Intent = "delete"
)

// ParseIntent maps the raw form value to an Intent.
// Unknown values are rejected rather than silently treated as create/update.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(raw) {
	case IntentNone, IntentCreate, IntentUpdate, IntentDelete:
		return Intent(raw), true
	default:
		return "", false
	}
}

// IsNewTarget reports whether the path target addresses a post yet to be created.
func IsNewTarget(target string) bool {
	return target == post.NewSlug
}
