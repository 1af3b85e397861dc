package drive

import (
	"sort"

	"github.com/cloudflow/cloudflow/pkg/models"
)

// Modifiers carries the keyboard state of a click or drag gesture.
type Modifiers struct {
	Ctrl  bool // Ctrl or Cmd
	Shift bool
}

// Selection tracks the selected entity set plus the anchor for range
// selection. It operates over the composer's output and is never
// persisted.
type Selection struct {
	ids         map[string]struct{}
	lastClicked string

	// marqueeBase is the selection captured when a marquee drag began;
	// every marquee update recomputes from it so the selection does not
	// drift as the rectangle changes.
	marqueeBase map[string]struct{}
	marqueeCtrl bool
	dragging    bool
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// IDs returns the selected IDs in display order relative to displayed,
// with any selected-but-not-displayed IDs appended after, sorted so the
// result is stable across calls.
func (sel *Selection) IDs(displayed []models.Entity) []string {
	out := make([]string, 0, len(sel.ids))
	seen := make(map[string]struct{}, len(sel.ids))
	for i := range displayed {
		if _, ok := sel.ids[displayed[i].ID]; ok {
			out = append(out, displayed[i].ID)
			seen[displayed[i].ID] = struct{}{}
		}
	}
	var hidden []string
	for id := range sel.ids {
		if _, ok := seen[id]; !ok {
			hidden = append(hidden, id)
		}
	}
	sort.Strings(hidden)
	return append(out, hidden...)
}

// Set replaces the selection wholesale. Used by programmatic selection
// such as assistant commands.
func (sel *Selection) Set(ids []string) {
	sel.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		sel.ids[id] = struct{}{}
	}
	sel.lastClicked = ""
	if len(ids) > 0 {
		sel.lastClicked = ids[len(ids)-1]
	}
}

// Contains reports whether id is selected.
func (sel *Selection) Contains(id string) bool {
	_, ok := sel.ids[id]
	return ok
}

// Count returns the number of selected entities.
func (sel *Selection) Count() int {
	return len(sel.ids)
}

// Clear empties the selection and the range anchor.
func (sel *Selection) Clear() {
	sel.ids = make(map[string]struct{})
	sel.lastClicked = ""
}

// Click applies click semantics against the currently displayed list:
// plain click selects just the clicked item (or deselects it when it was
// the sole selection), ctrl-click toggles membership, shift-click
// selects the contiguous display range from the anchor (replacing the
// selection, or adding to it when ctrl is also held). When either range
// endpoint has vanished from the display the click degrades to a plain
// single-select.
func (sel *Selection) Click(displayed []models.Entity, id string, mods Modifiers) {
	switch {
	case mods.Shift && sel.lastClicked != "":
		from := indexOf(displayed, sel.lastClicked)
		to := indexOf(displayed, id)
		if from < 0 || to < 0 {
			sel.ids = map[string]struct{}{id: {}}
			break
		}
		if !mods.Ctrl {
			sel.ids = make(map[string]struct{})
		}
		if from > to {
			from, to = to, from
		}
		for i := from; i <= to; i++ {
			sel.ids[displayed[i].ID] = struct{}{}
		}
	case mods.Ctrl:
		if _, ok := sel.ids[id]; ok {
			delete(sel.ids, id)
		} else {
			sel.ids[id] = struct{}{}
		}
	default:
		if _, ok := sel.ids[id]; ok && len(sel.ids) == 1 {
			sel.ids = make(map[string]struct{})
		} else {
			sel.ids = map[string]struct{}{id: {}}
		}
	}
	sel.lastClicked = id
}

// Rect is an axis-aligned rectangle in the UI's coordinate space.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Intersects reports whether two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return o.X < r.X+r.Width &&
		o.X+o.Width > r.X &&
		o.Y < r.Y+r.Height &&
		o.Y+o.Height > r.Y
}

// BeginMarquee starts a rectangular drag selection. Without a modifier
// the drag starts from an empty selection; with ctrl it accumulates on
// top of the selection as it stood when the drag began.
func (sel *Selection) BeginMarquee(mods Modifiers) {
	sel.dragging = true
	sel.marqueeCtrl = mods.Ctrl
	if mods.Ctrl {
		sel.marqueeBase = make(map[string]struct{}, len(sel.ids))
		for id := range sel.ids {
			sel.marqueeBase[id] = struct{}{}
		}
	} else {
		sel.marqueeBase = make(map[string]struct{})
		sel.Clear()
	}
}

// UpdateMarquee recomputes the selection for the current rectangle
// against the rendered items' bounds. Intersected items are added;
// with ctrl held, dragging over an initially selected item deselects
// it instead.
func (sel *Selection) UpdateMarquee(marquee Rect, bounds map[string]Rect) {
	if !sel.dragging {
		return
	}
	next := make(map[string]struct{}, len(sel.marqueeBase))
	for id := range sel.marqueeBase {
		next[id] = struct{}{}
	}
	for id, box := range bounds {
		if marquee.Intersects(box) {
			if _, initial := sel.marqueeBase[id]; initial && sel.marqueeCtrl {
				delete(next, id)
			} else {
				next[id] = struct{}{}
			}
		}
	}
	sel.ids = next
}

// EndMarquee finishes the drag, keeping the resulting selection.
func (sel *Selection) EndMarquee() {
	sel.dragging = false
	sel.marqueeBase = nil
}

func indexOf(displayed []models.Entity, id string) int {
	for i := range displayed {
		if displayed[i].ID == id {
			return i
		}
	}
	return -1
}
