package sched

import "sort"

// dispatchTable maps a trigger label to the callbacks registered for it.
// Multiple registrations under one label accumulate and all run, in
// registration order.
type dispatchTable struct {
	handlers map[string][]Action
}

func (t *dispatchTable) add(label string, cb Action) {
	if t.handlers == nil {
		t.handlers = make(map[string][]Action)
	}

	t.handlers[label] = append(t.handlers[label], cb)
}

// invoke runs every callback registered under the label. An unknown label is
// a no-op. The callback list is captured before the loop so that
// registrations made from within a callback only take effect on the next
// drive.
func (t *dispatchTable) invoke(label string) {
	callbacks := t.handlers[label]
	for _, cb := range callbacks {
		cb()
	}
}

func (t *dispatchTable) labels() []string {
	labels := make([]string, 0, len(t.handlers))
	for label := range t.handlers {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	return labels
}
