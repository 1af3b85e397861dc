package drive

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cloudflow/cloudflow/pkg/models"
)

// RecentsWindow caps how many entries the recents view shows.
const RecentsWindow = 20

// Query describes one composed view: where the user is looking, what
// they searched for, and how the result is ordered.
type Query struct {
	Location        models.Location
	CurrentFolderID *string
	Search          string
	SearchMode      models.SearchMode
	// ContentMatches is the externally supplied content-search result
	// set; the composer only intersects against it and never matches
	// content itself.
	ContentMatches map[string]struct{}
	Sort           models.SortConfig
}

// Compose derives the displayed entity list from a snapshot. It is a
// pure function: base pool by location, then search filtering, then
// ordering. The recents view keeps its own last-opened ordering and
// ignores the sort config.
func Compose(s Snapshot, q Query) []models.Entity {
	pool := basePool(s, q)

	if q.Search != "" {
		pool = filterSearch(pool, q)
	}

	if q.Location != models.LocationRecents {
		sortEntities(pool, q.Sort)
	}
	return pool
}

func basePool(s Snapshot, q Query) []models.Entity {
	var pool []models.Entity
	switch q.Location {
	case models.LocationTrash:
		for i := range s {
			if s[i].IsTrashed() {
				pool = append(pool, s[i].Clone())
			}
		}
	case models.LocationFavorites:
		for i := range s {
			if !s[i].IsTrashed() && s[i].IsFavorite {
				pool = append(pool, s[i].Clone())
			}
		}
	case models.LocationRecents:
		for i := range s {
			if !s[i].IsTrashed() && s[i].LastOpenedAt != nil {
				pool = append(pool, s[i].Clone())
			}
		}
		sort.SliceStable(pool, func(i, j int) bool {
			return pool[i].LastOpenedAt.After(*pool[j].LastOpenedAt)
		})
		if len(pool) > RecentsWindow {
			pool = pool[:RecentsWindow]
		}
	default: // browser
		for i := range s {
			if !s[i].IsTrashed() && sameParent(s[i].ParentID, q.CurrentFolderID) {
				pool = append(pool, s[i].Clone())
			}
		}
	}
	return pool
}

func filterSearch(pool []models.Entity, q Query) []models.Entity {
	out := pool[:0]
	switch q.SearchMode {
	case models.SearchContent:
		for _, e := range pool {
			if _, ok := q.ContentMatches[e.ID]; ok {
				out = append(out, e)
			}
		}
	default: // filename
		needle := strings.ToLower(q.Search)
		for _, e := range pool {
			if strings.Contains(strings.ToLower(e.Name), needle) {
				out = append(out, e)
			}
		}
	}
	return out
}

// sortEntities orders folders before files unconditionally; within a
// kind it compares by the configured field. Reversing the direction
// reverses only the within-kind order. An unknown field leaves the pool
// in its incoming order.
func sortEntities(pool []models.Entity, cfg models.SortConfig) {
	desc := cfg.Direction == models.SortDesc

	var cmp func(a, b *models.Entity) int
	switch cfg.Field {
	case models.SortByName:
		cmp = func(a, b *models.Entity) int { return naturalCompare(a.Name, b.Name) }
	case models.SortBySize:
		cmp = func(a, b *models.Entity) int { return compareInt64(a.Size, b.Size) }
	case models.SortByLastModified:
		cmp = func(a, b *models.Entity) int {
			return compareInt64(a.LastModified.UnixNano(), b.LastModified.UnixNano())
		}
	default:
		cmp = nil
	}

	sort.SliceStable(pool, func(i, j int) bool {
		a, b := &pool[i], &pool[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		if cmp == nil {
			return false
		}
		c := cmp(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// naturalCompare orders strings case-insensitively with digit runs
// compared numerically, so "file2" sorts before "file10".
func naturalCompare(a, b string) int {
	ar, br := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			ai, an := takeNumber(ar, i)
			bi, bn := takeNumber(br, j)
			if c := compareNumber(an, bn); c != 0 {
				return c
			}
			i, j = ai, bi
			continue
		}
		if ar[i] != br[j] {
			if ar[i] < br[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(ar):
		return 1
	case j < len(br):
		return -1
	default:
		return 0
	}
}

func takeNumber(r []rune, i int) (next int, digits []rune) {
	for i < len(r) && unicode.IsDigit(r[i]) {
		digits = append(digits, r[i])
		i++
	}
	return i, digits
}

func compareNumber(a, b []rune) int {
	a = trimLeadingZeros(a)
	b = trimLeadingZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func trimLeadingZeros(r []rune) []rune {
	i := 0
	for i < len(r)-1 && r[i] == '0' {
		i++
	}
	return r[i:]
}
