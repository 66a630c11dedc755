package guide

// Index is an in-memory channel index built once per run from all
// loaded guide documents and read-only afterwards. Insertion order is
// preserved so that matching tie-breaks are deterministic for a fixed
// guide load order.
type Index struct {
	channels []Channel
	byID     map[string]int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		channels: make([]Channel, 0, 100),
		byID:     make(map[string]int, 100),
	}
}

// Add inserts a channel, overwriting any earlier entry with the same ID
// (last loaded wins, keeping the original position). Entries without an
// ID or display name are malformed and dropped.
func (idx *Index) Add(ch Channel) bool {
	if ch.ID == "" || ch.DisplayName == "" {
		return false
	}

	if pos, exists := idx.byID[ch.ID]; exists {
		idx.channels[pos] = ch

		return true
	}

	idx.byID[ch.ID] = len(idx.channels)
	idx.channels = append(idx.channels, ch)

	return true
}

// AddAll inserts every well-formed channel from a parsed guide document
// and returns the number added.
func (idx *Index) AddAll(tv *TV) int {
	added := 0

	for _, ch := range tv.Channels {
		if idx.Add(ch) {
			added++
		}
	}

	return added
}

// Lookup returns the channel with the given ID.
func (idx *Index) Lookup(id string) (Channel, bool) {
	pos, ok := idx.byID[id]
	if !ok {
		return Channel{}, false
	}

	return idx.channels[pos], true
}

// Ordered returns all channels in insertion order. The returned slice
// must not be mutated.
func (idx *Index) Ordered() []Channel {
	return idx.channels
}

// Len returns the number of indexed channels.
func (idx *Index) Len() int {
	return len(idx.channels)
}
