// Package haltest implements the hal interfaces in memory. It records every
// object created and destroyed so tests can assert on lifetimes and
// teardown order without a GPU.
package haltest

import "fmt"

// Tracker records object lifetimes across one fake platform.
type Tracker struct {
	nextID   int
	created  map[string]int
	live     map[string]map[int]bool
	events   []string
	doubleRm []string
}

func NewTracker() *Tracker {
	return &Tracker{
		created: make(map[string]int),
		live:    make(map[string]map[int]bool),
	}
}

type object struct {
	tracker   *Tracker
	kind      string
	id        int
	destroyed bool
}

func (t *Tracker) newObject(kind string) object {
	t.nextID++
	t.created[kind]++
	if t.live[kind] == nil {
		t.live[kind] = make(map[int]bool)
	}
	t.live[kind][t.nextID] = true
	t.events = append(t.events, fmt.Sprintf("create %s", kind))
	return object{tracker: t, kind: kind, id: t.nextID}
}

func (o *object) destroy() {
	if o.destroyed {
		o.tracker.doubleRm = append(o.tracker.doubleRm, o.String())
		return
	}
	o.destroyed = true
	delete(o.tracker.live[o.kind], o.id)
	o.tracker.events = append(o.tracker.events, fmt.Sprintf("destroy %s", o.kind))
}

func (o *object) String() string {
	return fmt.Sprintf("%s#%d", o.kind, o.id)
}

// Alive reports whether the object has not been destroyed.
func (o *object) Alive() bool {
	return !o.destroyed
}

// Created returns how many objects of kind were ever created.
func (t *Tracker) Created(kind string) int {
	return t.created[kind]
}

// Live returns how many objects of kind exist right now.
func (t *Tracker) Live(kind string) int {
	return len(t.live[kind])
}

// LiveTotal returns the number of objects of any kind not yet destroyed.
func (t *Tracker) LiveTotal() int {
	total := 0
	for _, objects := range t.live {
		total += len(objects)
	}
	return total
}

// Events returns the ordered "create <kind>" / "destroy <kind>" log.
func (t *Tracker) Events() []string {
	return append([]string(nil), t.events...)
}

// Destroys returns the kinds destroyed, in order.
func (t *Tracker) Destroys() []string {
	var kinds []string
	for _, event := range t.events {
		var kind string
		if _, err := fmt.Sscanf(event, "destroy %s", &kind); err == nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// DoubleDestroys lists objects that were destroyed more than once.
func (t *Tracker) DoubleDestroys() []string {
	return t.doubleRm
}
