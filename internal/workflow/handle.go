package workflow

// Status is the lifecycle state of an external resource.
type Status string

const (
	// StatusPending means creation was issued but the resource is not usable yet.
	StatusPending Status = "pending"
	// StatusReady means the resource completed provisioning and is usable.
	StatusReady Status = "ready"
	// StatusFailed means the provider reported a terminal provisioning failure.
	StatusFailed Status = "failed"
	// StatusDeleted means the resource was torn down by a cleanup action.
	StatusDeleted Status = "deleted"
)

// Handle is the runtime record for one external resource.
//
// A handle is created by Creator.Ensure and mutated only by the waiter
// (status transitions) and the cleanup registry (status to deleted). A
// handle is owned by exactly one workflow step at a time; nothing in this
// package shares a handle across goroutines.
type Handle struct {
	// ID is the provider-assigned identifier (vpc-…, bucket name, i-…).
	ID     string
	Kind   Kind
	Status Status
	// Spec is the desired state this handle was resolved or created from.
	Spec Spec
}
