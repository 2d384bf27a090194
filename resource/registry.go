// Package resource models the host-side collaborators of a scheduler: a
// registry of named host resources and a mailbox that encodes messages into
// resource payloads.
package resource

// A Resource is a named object owned by the host environment. The payload is
// an opaque string the host or a collaborator may attach out of band.
type Resource struct {
	Name    string
	Kind    string
	Payload string
}

// A Registry provides ordered enumeration and name lookup of host resources.
type Registry interface {
	// Enumerate returns all resources in a stable order.
	Enumerate() []Resource

	// Lookup finds a resource by name.
	Lookup(name string) (Resource, bool)
}

// A PayloadStore is a registry whose resource payloads can be rewritten. The
// mailbox needs this write side.
type PayloadStore interface {
	Registry

	// SetPayload attaches a payload to the named resource, creating the
	// resource if it does not exist yet.
	SetPayload(name, payload string)
}

// MemRegistry is an in-memory PayloadStore. Enumeration order is insertion
// order.
type MemRegistry struct {
	resources []Resource
	index     map[string]int
}

// NewMemRegistry creates an empty MemRegistry.
func NewMemRegistry() *MemRegistry {
	return &MemRegistry{
		index: make(map[string]int),
	}
}

// Add registers a resource. Adding a resource with an existing name replaces
// the earlier one in place, keeping its position in the enumeration order.
func (r *MemRegistry) Add(res Resource) {
	if i, ok := r.index[res.Name]; ok {
		r.resources[i] = res
		return
	}

	r.index[res.Name] = len(r.resources)
	r.resources = append(r.resources, res)
}

// Enumerate returns a copy of all resources in insertion order.
func (r *MemRegistry) Enumerate() []Resource {
	out := make([]Resource, len(r.resources))
	copy(out, r.resources)
	return out
}

// Lookup finds a resource by name.
func (r *MemRegistry) Lookup(name string) (Resource, bool) {
	i, ok := r.index[name]
	if !ok {
		return Resource{}, false
	}
	return r.resources[i], true
}

// SetPayload attaches a payload to the named resource, creating a resource
// of kind "payload" if none exists.
func (r *MemRegistry) SetPayload(name, payload string) {
	if i, ok := r.index[name]; ok {
		r.resources[i].Payload = payload
		return
	}

	r.Add(Resource{Name: name, Kind: "payload", Payload: payload})
}
