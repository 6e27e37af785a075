package reconcile

import "sync"

// Bankroll holds the session bankroll. It starts empty and is set at most once.
type Bankroll struct {
	mu    sync.Mutex
	value float64
	set   bool
}

// Value returns the held bankroll and whether one has been established
func (b *Bankroll) Value() (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.set
}

// establish stores v unless a value is already held, and returns the held value
func (b *Bankroll) establish(v float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.set {
		b.value = v
		b.set = true
	}
	return b.value
}
