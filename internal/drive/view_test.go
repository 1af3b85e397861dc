package drive

import (
	"fmt"
	"testing"
	"time"

	"github.com/cloudflow/cloudflow/pkg/models"
)

func names(list []models.Entity) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Name
	}
	return out
}

func equalNames(got []models.Entity, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Name != want[i] {
			return false
		}
	}
	return true
}

func TestComposeBrowser(t *testing.T) {
	s := testSnapshot()
	q := Query{Location: models.LocationBrowser, Sort: models.DefaultSortConfig()}

	got := Compose(s, q)
	if !equalNames(got, "Documents", "Pictures") {
		t.Fatalf("root browser = %v", names(got))
	}

	q.CurrentFolderID = sp("docs")
	got = Compose(s, q)
	if !equalNames(got, "Reports", "notes.txt") {
		t.Fatalf("docs browser = %v", names(got))
	}
}

func TestComposeTrash(t *testing.T) {
	s := testSnapshot()
	got := Compose(s, Query{Location: models.LocationTrash, Sort: models.DefaultSortConfig()})
	if !equalNames(got, "old.txt") {
		t.Fatalf("trash = %v", names(got))
	}
}

func TestComposeFavoritesIsGlobal(t *testing.T) {
	s := testSnapshot()
	// Favorites ignore the current folder entirely.
	q := Query{Location: models.LocationFavorites, CurrentFolderID: sp("pics"), Sort: models.DefaultSortConfig()}
	got := Compose(s, q)
	if !equalNames(got, "Documents") {
		t.Fatalf("favorites = %v", names(got))
	}
}

func TestComposeRecents(t *testing.T) {
	var s Snapshot
	base := time.Now()
	for i := 0; i < RecentsWindow+5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s = append(s, models.Entity{
			ID:           fmt.Sprintf("f%d", i),
			Name:         fmt.Sprintf("f%d.txt", i),
			Kind:         models.KindFile,
			LastOpenedAt: &at,
		})
	}
	// A sort config must not disturb the recency order.
	q := Query{Location: models.LocationRecents, Sort: models.SortConfig{Field: models.SortByName, Direction: models.SortAsc}}
	got := Compose(s, q)
	if len(got) != RecentsWindow {
		t.Fatalf("recents window = %d, want %d", len(got), RecentsWindow)
	}
	if got[0].ID != fmt.Sprintf("f%d", RecentsWindow+4) {
		t.Errorf("recents[0] = %s, want most recently opened", got[0].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].LastOpenedAt.After(*got[i-1].LastOpenedAt) {
			t.Fatalf("recents not in last-opened order at %d", i)
		}
	}
}

func TestComposeFilenameSearch(t *testing.T) {
	s := testSnapshot()
	q := Query{
		Location:        models.LocationBrowser,
		CurrentFolderID: sp("docs"),
		Search:          "NOTE",
		SearchMode:      models.SearchFilename,
		Sort:            models.DefaultSortConfig(),
	}
	got := Compose(s, q)
	if !equalNames(got, "notes.txt") {
		t.Fatalf("filename search = %v", names(got))
	}
}

func TestComposeContentSearchIntersects(t *testing.T) {
	s := testSnapshot()
	q := Query{
		Location:        models.LocationBrowser,
		CurrentFolderID: sp("docs"),
		Search:          "budget",
		SearchMode:      models.SearchContent,
		// q1 matched too, but it lives outside the current pool.
		ContentMatches: map[string]struct{}{"notes": {}, "q1": {}},
		Sort:           models.DefaultSortConfig(),
	}
	got := Compose(s, q)
	if !equalNames(got, "notes.txt") {
		t.Fatalf("content search = %v", names(got))
	}
}

func TestComposeContentSearchEmptyMatches(t *testing.T) {
	s := testSnapshot()
	q := Query{
		Location:   models.LocationBrowser,
		Search:     "anything",
		SearchMode: models.SearchContent,
		Sort:       models.DefaultSortConfig(),
	}
	if got := Compose(s, q); len(got) != 0 {
		t.Fatalf("content search with no matches = %v", names(got))
	}
}

func TestSortFoldersFirstAlways(t *testing.T) {
	pool := []models.Entity{
		{Name: "zz.txt", Kind: models.KindFile, Size: 1},
		{Name: "aa", Kind: models.KindFolder},
		{Name: "bb.txt", Kind: models.KindFile, Size: 9},
	}

	sortEntities(pool, models.SortConfig{Field: models.SortBySize, Direction: models.SortDesc})
	if pool[0].Name != "aa" {
		t.Fatalf("descending size sort must still lead with folders: %v", pool[0].Name)
	}
	if pool[1].Name != "bb.txt" || pool[2].Name != "zz.txt" {
		t.Errorf("within-kind desc order wrong: %v %v", pool[1].Name, pool[2].Name)
	}
}

func TestSortUnknownFieldIsIdentity(t *testing.T) {
	pool := []models.Entity{
		{Name: "c.txt", Kind: models.KindFile},
		{Name: "a.txt", Kind: models.KindFile},
		{Name: "b.txt", Kind: models.KindFile},
	}
	sortEntities(pool, models.SortConfig{Field: "color", Direction: models.SortAsc})
	if pool[0].Name != "c.txt" || pool[1].Name != "a.txt" || pool[2].Name != "b.txt" {
		t.Fatalf("unknown sort field reordered the pool: %v", names(pool))
	}
}

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"file2", "file10", -1},
		{"file10", "file2", 1},
		{"file2", "file2", 0},
		{"File2", "file2", 0},
		{"file02", "file2", 0},
		{"file", "file2", -1},
		{"a10b2", "a10b10", -1},
		{"alpha", "beta", -1},
	}
	for _, tt := range tests {
		got := naturalCompare(tt.a, tt.b)
		if (got < 0) != (tt.want < 0) || (got > 0) != (tt.want > 0) {
			t.Errorf("naturalCompare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
		}
	}
}
