package generate

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/schemaforge/schemaforge-go/rng"
)

// formatGenerator produces a deterministic canonical string for a format
// keyword, seeded by r. The int argument is a per-call uniqueness counter
// the registry increments so repeated draws at the same canonPath within
// one item still differ (array elements, oneOf retries).
type formatGenerator func(r *rng.XorShift32, seq int) string

// formatRegistry grounds the "registry produces deterministic canonical
// values" requirement (spec.md §4.5) on theRebelliousNerd-codenerd's use of
// github.com/google/uuid for identifier generation, adapted so the random
// bytes come from this engine's own deterministic rng rather than
// uuid.NewRandom (which reads crypto/rand and would break determinism).
var formatRegistry = map[string]formatGenerator{
	"uuid":      genUUID,
	"email":     genEmail,
	"uri":       genURI,
	"date-time": genDateTime,
}

func genUUID(r *rng.XorShift32, seq int) string {
	var b [16]byte
	r.Bytes(b[:])
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		// uuid.FromBytes only fails on a wrong-length slice, which cannot
		// happen here; fall back to the nil UUID rather than panicking.
		return uuid.Nil.String()
	}
	// Fix the RFC 4122 version (4, random) and variant bits so the result
	// is itself a valid UUID rather than arbitrary random bytes wearing a
	// UUID-shaped hyphenation.
	idBytes := id
	idBytes[6] = (idBytes[6] & 0x0f) | 0x40
	idBytes[8] = (idBytes[8] & 0x3f) | 0x80
	return idBytes.String()
}

func genEmail(r *rng.XorShift32, seq int) string {
	return fmt.Sprintf("user%d@example-%d.test", seq, r.Intn(1_000_000))
}

func genURI(r *rng.XorShift32, seq int) string {
	return fmt.Sprintf("https://example.test/resource/%d/%d", seq, r.Intn(1_000_000))
}

func genDateTime(r *rng.XorShift32, seq int) string {
	// A fixed epoch offset by a deterministic draw keeps values distinct
	// without touching the wall clock (spec.md §5: no wall-clock-dependent
	// decisions).
	seconds := r.Intn(4 * 365 * 24 * 3600)
	days := seconds / 86400
	rem := seconds % 86400
	hh, mm, ss := rem/3600, (rem%3600)/60, rem%60
	year := 2000 + days/365
	doy := days % 365
	month := doy/30 + 1
	if month > 12 {
		month = 12
	}
	day := doy%30 + 1
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", year, month, day, hh, mm, ss)
}

// generateFormatValue produces the next deterministic value for format at
// canonPath, advancing ctx's per-canonPath sequence counter for uniqueness
// across repeated calls within one item (array elements, oneOf retries).
func generateFormatValue(ctx *Context, format string, r *rng.XorShift32, canonPath string) (string, bool) {
	gen, ok := formatRegistry[format]
	if !ok {
		return "", false
	}
	seq := ctx.formatSeq[canonPath]
	ctx.formatSeq[canonPath] = seq + 1
	return gen(r, seq), true
}
