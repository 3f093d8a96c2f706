package preset

// Store exposes preset retrieval for HTTP handlers.
type Store interface {
	List() []Preset
	FindByID(id string) (Preset, bool)
}

// MemoryStore keeps presets in declaration order with an id index.
// A later preset with a duplicate id replaces the earlier one in place.
type MemoryStore struct {
	items []Preset
	byID  map[string]int
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied presets.
func NewMemoryStore(items []Preset) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]int, len(items))}
	for _, item := range items {
		if idx, ok := s.byID[item.ID]; ok {
			s.items[idx] = item
			continue
		}
		s.byID[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}
	return s
}

func (s *MemoryStore) List() []Preset {
	return append([]Preset(nil), s.items...)
}

func (s *MemoryStore) FindByID(id string) (Preset, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Preset{}, false
	}
	return s.items[idx], true
}
