package drive

// ClipAction is the pending clipboard intent.
type ClipAction string

const (
	ClipCopy ClipAction = "copy"
	ClipCut  ClipAction = "cut"
)

// Clipboard is the single pending cut/copy slot. A new Set replaces any
// pending entry; there is no stack. Clipboard state is never persisted.
type Clipboard struct {
	action ClipAction
	ids    []string
}

// Set records a new cut or copy intent, replacing any pending one.
func (c *Clipboard) Set(action ClipAction, ids []string) {
	c.action = action
	c.ids = append([]string(nil), ids...)
}

// Pending returns the pending action and IDs, or ("", nil) when empty.
func (c *Clipboard) Pending() (ClipAction, []string) {
	if len(c.ids) == 0 {
		return "", nil
	}
	return c.action, append([]string(nil), c.ids...)
}

// Clear empties the clipboard.
func (c *Clipboard) Clear() {
	c.action = ""
	c.ids = nil
}
