package series

import "sync/atomic"

// Snapshot publishes the current Series to concurrent readers.
// Reloads replace the whole *Series; readers keep whatever pointer they loaded.
type Snapshot struct {
	current atomic.Pointer[Series]
}

// NewSnapshot creates a snapshot holding s (which may be nil).
func NewSnapshot(s *Series) *Snapshot {
	snap := &Snapshot{}
	if s != nil {
		snap.current.Store(s)
	}
	return snap
}

// Load returns the current series, or nil if none was published yet.
func (p *Snapshot) Load() *Series {
	return p.current.Load()
}

// Store publishes s and returns the previous series.
func (p *Snapshot) Store(s *Series) *Series {
	return p.current.Swap(s)
}
