package drive

import (
	"fmt"
	"strings"
)

// splitExt splits a file name into base and extension at the last dot.
// Names without a dot (or starting with one) have an empty extension.
func splitExt(name string) (base, ext string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// uniqueName returns proposed, or proposed with " (1)", " (2)", ... spliced
// in before the extension until it no longer appears in taken. Comparison
// is case-insensitive. taken holds lower-cased names.
func uniqueName(taken map[string]bool, proposed string) string {
	if !taken[strings.ToLower(proposed)] {
		return proposed
	}
	base, ext := splitExt(proposed)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

// takenNames collects the lower-cased names of non-trashed children of
// parentID, the pool uniqueName resolves against.
func (s Snapshot) takenNames(parentID *string) map[string]bool {
	taken := make(map[string]bool)
	for i := range s {
		e := &s[i]
		if e.IsTrashed() || !sameParent(e.ParentID, parentID) {
			continue
		}
		taken[strings.ToLower(e.Name)] = true
	}
	return taken
}

// copyName derives the name for a duplicate. Duplicating in place gets a
// "Copy of" prefix so the pair reads as original plus copy; pasting into
// a different folder keeps the original name. Either way the result then
// passes through uniqueName.
func copyName(name string, inPlace bool) string {
	if inPlace {
		return "Copy of " + name
	}
	return name
}
