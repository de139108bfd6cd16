package lineedit

// History is a bounded archive of submitted lines, oldest first.
type History struct {
	max     int
	entries []string
}

// NewHistory returns a history holding at most limit entries.  limit < 1
// is treated as 1.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{max: limit}
}

// Add appends line, evicting the oldest entries beyond the bound.
func (h *History) Add(line string) {
	h.entries = append(h.entries, line)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// Len returns the number of stored lines.
func (h *History) Len() int { return len(h.entries) }

// Max returns the capacity.
func (h *History) Max() int { return h.max }

// Entries returns a copy of the stored lines, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Drafts is the editable overlay used while one line is being typed:
// a copy of every history entry plus a fresh slot at the end.  Edits
// land in the overlay only; the History it was built from is never
// touched.
type Drafts struct {
	slots []string
	idx   int
}

// NewDrafts builds an overlay from a history snapshot, selecting the
// fresh slot.
func NewDrafts(snapshot []string) *Drafts {
	slots := make([]string, len(snapshot)+1)
	copy(slots, snapshot)
	return &Drafts{slots: slots, idx: len(snapshot)}
}

// Index returns the selected slot.
func (d *Drafts) Index() int { return d.idx }

// Len returns the number of slots.
func (d *Drafts) Len() int { return len(d.slots) }

// Current returns the text of the selected slot.
func (d *Drafts) Current() string { return d.slots[d.idx] }

// Save stores s in the selected slot.
func (d *Drafts) Save(s string) { d.slots[d.idx] = s }

// Prev selects the previous slot.  ok is false at the first slot.
func (d *Drafts) Prev() (s string, ok bool) {
	if d.idx == 0 {
		return "", false
	}
	d.idx--
	return d.slots[d.idx], true
}

// Next selects the following slot.  ok is false at the fresh slot.
func (d *Drafts) Next() (s string, ok bool) {
	if d.idx == len(d.slots)-1 {
		return "", false
	}
	d.idx++
	return d.slots[d.idx], true
}
