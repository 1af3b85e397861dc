package drive

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudflow/cloudflow/pkg/models"
)

func TestCreate(t *testing.T) {
	s := testSnapshot()

	next, e, err := Create(s, models.KindFile, "  draft.txt  ", sp("docs"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Name != "draft.txt" {
		t.Errorf("name not trimmed: %q", e.Name)
	}
	if e.ID == "" {
		t.Error("created entity has no ID")
	}
	if next.Find(e.ID) == nil {
		t.Error("created entity not in result snapshot")
	}
	if s.Find(e.ID) != nil {
		t.Error("input snapshot was modified")
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	s := testSnapshot()
	if _, _, err := Create(s, models.KindFile, "   ", nil); !errors.Is(err, ErrNoChange) {
		t.Fatalf("blank name: got %v, want ErrNoChange", err)
	}
}

func TestCreateCollision(t *testing.T) {
	s := testSnapshot()
	_, _, err := Create(s, models.KindFolder, "NOTES.txt", sp("docs"))
	if !IsCollision(err) {
		t.Fatalf("collision not reported: %v", err)
	}
}

func TestCreateUnderMissingOrFileParent(t *testing.T) {
	s := testSnapshot()
	if _, _, err := Create(s, models.KindFile, "x", sp("gone")); !IsNotFound(err) {
		t.Fatalf("missing parent: %v", err)
	}
	if _, _, err := Create(s, models.KindFile, "x", sp("notes")); !IsNotFound(err) {
		t.Fatalf("file parent: %v", err)
	}
}

func TestRename(t *testing.T) {
	s := testSnapshot()
	next, err := Rename(s, "notes", "journal.txt")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if next.Find("notes").Name != "journal.txt" {
		t.Error("rename did not apply")
	}
	if s.Find("notes").Name != "notes.txt" {
		t.Error("input snapshot was modified")
	}

	// Renaming to the exact same name is a cancelled edit.
	if _, err := Rename(s, "notes", "notes.txt"); !errors.Is(err, ErrNoChange) {
		t.Errorf("self rename: %v", err)
	}
	// A case-only rename is legitimate, not a self collision.
	if next, err := Rename(s, "notes", "Notes.txt"); err != nil || next.Find("notes").Name != "Notes.txt" {
		t.Errorf("case-only rename: %v", err)
	}
	if _, err := Rename(s, "reports", "notes.txt"); !IsCollision(err) {
		t.Errorf("sibling collision: %v", err)
	}
	if _, err := Rename(s, "gone", "x"); !IsNotFound(err) {
		t.Errorf("missing id: %v", err)
	}
}

func TestMove(t *testing.T) {
	s := testSnapshot()
	next, err := Move(s, []string{"notes"}, sp("pics"))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if *next.Find("notes").ParentID != "pics" {
		t.Error("move did not reparent")
	}
}

func TestMoveToRoot(t *testing.T) {
	s := testSnapshot()
	next, err := Move(s, []string{"q1"}, nil)
	if err != nil {
		t.Fatalf("Move to root: %v", err)
	}
	if next.Find("q1").ParentID != nil {
		t.Error("move to root did not clear ParentID")
	}
}

func TestMoveRejectsCycles(t *testing.T) {
	s := testSnapshot()
	if _, err := Move(s, []string{"docs"}, sp("reports")); !IsCycle(err) {
		t.Fatalf("folder into own descendant: %v", err)
	}
	if _, err := Move(s, []string{"docs"}, sp("docs")); !IsCycle(err) {
		t.Fatalf("folder into itself: %v", err)
	}
}

func TestMoveAllOrNothing(t *testing.T) {
	s := testSnapshot()
	// One valid member plus one collision: nothing moves.
	s = append(s, models.Entity{ID: "q1b", Name: "q1.pdf", Kind: models.KindFile, ParentID: sp("docs")})
	_, err := Move(s, []string{"notes", "q1b"}, sp("reports"))
	if !IsCollision(err) {
		t.Fatalf("want collision, got %v", err)
	}
	if *s.Find("notes").ParentID != "docs" {
		t.Error("partial move applied")
	}
}

func TestMoveRejectsIntraBatchCollision(t *testing.T) {
	s := testSnapshot()
	// Same name in two different folders, moved together: the batch
	// would land two case-insensitive-equal siblings, so nothing moves.
	s = append(s,
		models.Entity{ID: "a1", Name: "a.txt", Kind: models.KindFile, ParentID: sp("docs")},
		models.Entity{ID: "a2", Name: "A.TXT", Kind: models.KindFile, ParentID: sp("reports")},
	)
	_, err := Move(s, []string{"a1", "a2"}, sp("pics"))
	if !IsCollision(err) {
		t.Fatalf("want collision, got %v", err)
	}
	if *s.Find("a1").ParentID != "docs" || *s.Find("a2").ParentID != "reports" {
		t.Error("rejected batch must not move")
	}

	// A repeated id is not a clash with itself.
	next, err := Move(s, []string{"a1", "a1"}, sp("pics"))
	if err != nil {
		t.Fatalf("Move with repeated id: %v", err)
	}
	if *next.Find("a1").ParentID != "pics" {
		t.Error("repeated id did not move")
	}
}

func TestMoveSkipsUnknownIDs(t *testing.T) {
	s := testSnapshot()
	next, err := Move(s, []string{"notes", "gone"}, sp("pics"))
	if err != nil {
		t.Fatalf("Move with stale id: %v", err)
	}
	if *next.Find("notes").ParentID != "pics" {
		t.Error("known id did not move")
	}
}

func TestTrashClearsFavoriteAndRestoreRoundTrip(t *testing.T) {
	s := testSnapshot()

	trashed := Trash(s, []string{"docs"})
	d := trashed.Find("docs")
	if d.TrashedAt == nil {
		t.Fatal("not trashed")
	}
	if d.IsFavorite {
		t.Error("trash must clear the favorite flag")
	}
	// Children keep their links but the subtree leaves the browser pool
	// through its root.
	if trashed.Find("q1").TrashedAt != nil {
		t.Error("trash must not mark descendants individually")
	}

	restored := Restore(trashed, []string{"docs"})
	r := restored.Find("docs")
	if r.TrashedAt != nil {
		t.Error("restore did not clear TrashedAt")
	}
	if r.IsFavorite {
		t.Error("favorite must stay cleared after restore")
	}
}

func TestTrashIsIdempotent(t *testing.T) {
	s := testSnapshot()
	first := Trash(s, []string{"notes"})
	stamp := *first.Find("notes").TrashedAt

	again := Trash(first, []string{"notes"})
	if got := *again.Find("notes").TrashedAt; !got.Equal(stamp) {
		t.Fatalf("re-trash moved TrashedAt from %v to %v", stamp, got)
	}
}

func TestRestoreReparentsWhenHomeIsGone(t *testing.T) {
	// A trashed entity can outlive its parent when persisted state was
	// loaded from a partially corrupted source.
	s := Snapshot{
		{ID: "q1", Name: "q1.pdf", Kind: models.KindFile, ParentID: sp("gone"), TrashedAt: timePtr(time.Now())},
	}

	s = Restore(s, []string{"q1"})
	q := s.Find("q1")
	if q == nil {
		t.Fatal("q1 vanished")
	}
	if q.TrashedAt != nil {
		t.Error("not restored")
	}
	if q.ParentID != nil {
		t.Error("restore into missing parent must land at root")
	}
}

func TestRestoreIntoTrashedParentLandsAtRoot(t *testing.T) {
	s := testSnapshot()
	s = Trash(s, []string{"q1"})
	s = Trash(s, []string{"reports"})

	s = Restore(s, []string{"q1"})
	if s.Find("q1").ParentID != nil {
		t.Error("restore under a trashed parent must land at root")
	}
}

func TestPermanentDeleteCascades(t *testing.T) {
	s := testSnapshot()
	next := PermanentDelete(s, []string{"docs"})
	for _, id := range []string{"docs", "reports", "q1", "notes"} {
		if next.Find(id) != nil {
			t.Errorf("%q survived cascade delete", id)
		}
	}
	if next.Find("pics") == nil {
		t.Error("unrelated entity deleted")
	}
	// No dangling parent links remain.
	for _, e := range next {
		if e.ParentID != nil && next.Find(*e.ParentID) == nil {
			t.Errorf("%q has dangling parent %q", e.ID, *e.ParentID)
		}
	}
}

func TestEmptyTrash(t *testing.T) {
	s := testSnapshot()
	s = Trash(s, []string{"docs"})
	next := EmptyTrash(s)

	if next.Find("old") != nil || next.Find("docs") != nil {
		t.Error("trashed entities survived EmptyTrash")
	}
	if next.Find("q1") != nil {
		t.Error("descendants of a trashed folder survived EmptyTrash")
	}
	if next.Find("pics") == nil {
		t.Error("live entity deleted by EmptyTrash")
	}
}

func TestToggleFavoriteIsBulkSet(t *testing.T) {
	s := testSnapshot()

	// Mixed set: not all favorite, so everything turns on.
	next := ToggleFavorite(s, []string{"docs", "notes"})
	if !next.Find("docs").IsFavorite || !next.Find("notes").IsFavorite {
		t.Fatal("mixed toggle should set all favorite")
	}

	// All favorite: everything turns off.
	next = ToggleFavorite(next, []string{"docs", "notes"})
	if next.Find("docs").IsFavorite || next.Find("notes").IsFavorite {
		t.Fatal("uniform toggle should clear all")
	}
}

func TestTouch(t *testing.T) {
	s := testSnapshot()
	next, err := Touch(s, "notes")
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if next.Find("notes").LastOpenedAt == nil {
		t.Error("LastOpenedAt not set")
	}
	if _, err := Touch(s, "docs"); !errors.Is(err, ErrNoChange) {
		t.Errorf("touching a folder: %v", err)
	}
}

func TestSaveContentVersions(t *testing.T) {
	s := testSnapshot()
	var err error
	for i := 0; i < models.MaxVersions+3; i++ {
		s, err = SaveContent(s, "notes", strings.Repeat("x", i+1))
		if err != nil {
			t.Fatalf("SaveContent: %v", err)
		}
	}
	e := s.Find("notes")
	if len(e.Versions) != models.MaxVersions {
		t.Errorf("versions = %d, want cap %d", len(e.Versions), models.MaxVersions)
	}
	if e.Content() != strings.Repeat("x", models.MaxVersions+3) {
		t.Error("newest version not first")
	}
	if e.Size != int64(models.MaxVersions+3) {
		t.Errorf("size = %d", e.Size)
	}
}

func TestDuplicateInPlace(t *testing.T) {
	s := testSnapshot()
	next, created, err := Duplicate(s, []string{"notes"}, sp("docs"))
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created = %v", created)
	}
	copy := next.Find(created[0])
	if copy.Name != "Copy of notes.txt" {
		t.Errorf("in-place copy name = %q", copy.Name)
	}
	if copy.ID == "notes" {
		t.Error("copy shares the original's ID")
	}

	// Duplicating again collides with the first copy and gets numbered.
	next, created, err = Duplicate(next, []string{"notes"}, sp("docs"))
	if err != nil {
		t.Fatalf("second Duplicate: %v", err)
	}
	if got := next.Find(created[0]).Name; got != "Copy of notes (1).txt" {
		t.Errorf("second copy name = %q", got)
	}
}

func TestDuplicateSubtree(t *testing.T) {
	s := testSnapshot()
	next, created, err := Duplicate(s, []string{"docs"}, nil)
	if err != nil {
		t.Fatalf("Duplicate subtree: %v", err)
	}
	root := next.Find(created[0])
	if root.Name != "Copy of Documents" {
		t.Errorf("copy root name = %q", root.Name)
	}
	if root.IsFavorite {
		t.Error("copies must not inherit the favorite flag")
	}

	desc := next.DescendantsOf(root.ID)
	if len(desc) != 3 {
		t.Fatalf("copied subtree has %d descendants, want 3", len(desc))
	}
	for id := range desc {
		e := next.Find(id)
		if e.ID == "reports" || e.ID == "q1" || e.ID == "notes" {
			t.Errorf("copy reuses original ID %q", e.ID)
		}
	}
	// Originals untouched.
	if next.Find("q1") == nil || *next.Find("q1").ParentID != "reports" {
		t.Error("original subtree disturbed")
	}
}

func TestDuplicateSkipsTrashedChildren(t *testing.T) {
	s := testSnapshot()
	s = Trash(s, []string{"notes"})
	next, created, err := Duplicate(s, []string{"docs"}, nil)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	for id := range next.DescendantsOf(created[0]) {
		if strings.Contains(next.Find(id).Name, "notes") {
			t.Error("trashed child was copied")
		}
	}
}

func TestSetTags(t *testing.T) {
	s := testSnapshot()
	next, err := SetTags(s, "notes", []string{"work", "draft"})
	if err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	if got := next.Find("notes").Tags; len(got) != 2 || got[0] != "work" {
		t.Errorf("tags = %v", got)
	}
	if len(s.Find("notes").Tags) != 0 {
		t.Error("input snapshot was modified")
	}
}
