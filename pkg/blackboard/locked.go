package blackboard

import "sync"

// Locked holds the lock of one entry and exposes its value while held. Callers
// must Release it, usually with defer. A nil *Locked stands for a missing name.
type Locked struct {
	entry *Entry
	once  sync.Once
}

func lockEntry(e *Entry) *Locked {
	e.mu.Lock()
	return &Locked{entry: e}
}

// Value returns the guarded container. Writes through it bypass the type-safety
// protocol of Set. Returns nil on a nil guard.
func (l *Locked) Value() *Value {
	if l == nil {
		return nil
	}
	return &l.entry.value
}

// Info returns the declared type of the guarded entry.
func (l *Locked) Info() TypeInfo {
	if l == nil {
		return TypeInfo{}
	}
	return l.entry.info
}

// Release unlocks the entry. It is safe to call more than once and on nil.
func (l *Locked) Release() {
	if l == nil {
		return
	}
	l.once.Do(l.entry.mu.Unlock)
}
