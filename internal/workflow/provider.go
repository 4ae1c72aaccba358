package workflow

import "context"

// Provider is the minimal capability set a cloud backend must expose.
// The workflow core depends on these four operations only, never on a
// provider-specific resource model.
type Provider interface {
	// Lookup returns the existing resource matching the spec's natural key,
	// or nil when no such resource exists. When a resource exists but its
	// configuration is incompatible with the spec, Lookup returns a
	// ConflictError without mutating anything.
	Lookup(ctx context.Context, spec Spec) (*Handle, error)

	// Create issues exactly one creation call and returns a pending handle.
	Create(ctx context.Context, spec Spec) (*Handle, error)

	// Status reports the resource's current lifecycle state.
	Status(ctx context.Context, handle *Handle) (Status, error)

	// Delete releases the resource. Deleting an already-absent resource
	// must succeed.
	Delete(ctx context.Context, handle *Handle) error
}
