package session

// Guard decides whether protected views may render. A missing session is not
// transient, so there is nothing to retry: callers must send the user back to
// the login entry point when Allow returns false.
type Guard struct {
	store *Store
}

// NewGuard creates a guard over the given store.
func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// Allow reports whether a complete session exists.
func (g *Guard) Allow() bool {
	_, ok := g.store.Current()
	return ok
}
