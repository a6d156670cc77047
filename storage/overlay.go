package storage

import "fmt"

// Overlay buffers writes on top of a parent database. Reads observe pending
// writes first. Nothing reaches the parent until Commit, and Discard drops the
// journal, so a failed call leaves the parent untouched.
type Overlay struct {
	parent  Database
	puts    map[string][]byte
	deletes map[string]struct{}
}

// NewOverlay opens an empty journal over parent.
func NewOverlay(parent Database) *Overlay {
	return &Overlay{
		parent:  parent,
		puts:    make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

func (o *Overlay) Put(key []byte, value []byte) error {
	k := string(key)
	delete(o.deletes, k)
	o.puts[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	k := string(key)
	if value, ok := o.puts[k]; ok {
		return append([]byte(nil), value...), nil
	}
	if _, ok := o.deletes[k]; ok {
		return nil, ErrNotFound
	}
	return o.parent.Get(key)
}

func (o *Overlay) Delete(key []byte) error {
	k := string(key)
	delete(o.puts, k)
	o.deletes[k] = struct{}{}
	return nil
}

// Close is a no-op; the parent owns the underlying handle.
func (o *Overlay) Close() {}

// Pending reports the number of buffered mutations.
func (o *Overlay) Pending() int { return len(o.puts) + len(o.deletes) }

// Commit flushes the journal to the parent. Backends implementing Batcher
// apply it atomically; others receive sequential writes.
func (o *Overlay) Commit() error {
	if o.Pending() == 0 {
		return nil
	}
	if batcher, ok := o.parent.(Batcher); ok {
		if err := batcher.Write(o.puts, o.deletes); err != nil {
			return fmt.Errorf("storage: commit overlay: %w", err)
		}
		o.reset()
		return nil
	}
	for key := range o.deletes {
		if err := o.parent.Delete([]byte(key)); err != nil {
			return fmt.Errorf("storage: commit delete: %w", err)
		}
	}
	for key, value := range o.puts {
		if err := o.parent.Put([]byte(key), value); err != nil {
			return fmt.Errorf("storage: commit put: %w", err)
		}
	}
	o.reset()
	return nil
}

// Discard drops every buffered mutation.
func (o *Overlay) Discard() { o.reset() }

func (o *Overlay) reset() {
	o.puts = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
}
