package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type resource struct {
	id      uuid.UUID
	name    string
	release func()
}

// Registry tracks every device object a sample creates so that all of them
// are released, newest first, whichever way the sample exits.
type Registry struct {
	resources []resource
}

// Track records release as the way to free the object called name.
func (r *Registry) Track(name string, release func()) uuid.UUID {
	id := uuid.New()
	r.resources = append(r.resources, resource{id: id, name: name, release: release})
	return id
}

// Release frees a single tracked object ahead of ReleaseAll.
func (r *Registry) Release(id uuid.UUID) error {
	for i := len(r.resources) - 1; i >= 0; i-- {
		if r.resources[i].id != id {
			continue
		}

		res := r.resources[i]
		r.resources = append(r.resources[:i], r.resources[i+1:]...)
		LogDebug("release %s (%s)", res.name, res.id)
		res.release()
		return nil
	}

	return errors.Newf("resource %s is not tracked", id)
}

// Replace tracks a new object and then frees the one tracked as old, for
// objects rebuilt while the sample runs.
func (r *Registry) Replace(old uuid.UUID, name string, release func()) (uuid.UUID, error) {
	id := r.Track(name, release)
	return id, r.Release(old)
}

// names lists tracked objects oldest first.
func (r *Registry) names() []string {
	names := make([]string, 0, len(r.resources))
	for _, res := range r.resources {
		names = append(names, res.name)
	}
	return names
}

func (r *Registry) ReleaseAll() {
	for i := len(r.resources) - 1; i >= 0; i-- {
		res := r.resources[i]
		LogDebug("release %s (%s)", res.name, res.id)
		res.release()
	}
	r.resources = nil
}
