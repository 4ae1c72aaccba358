package workflow

// Kind classifies the resources a workflow can manage.
type Kind string

const (
	// KindNetwork is an isolated network (VPC with subnets and routing).
	KindNetwork Kind = "network"
	// KindStorage is an object storage bucket.
	KindStorage Kind = "storage"
	// KindCompute is a virtual machine instance.
	KindCompute Kind = "compute"
)

// Spec is the desired-state description of a single resource.
//
// Key is the natural key used for idempotency matching: resources are
// recognized as "the same" across runs by (Kind, Key), never by provider
// identifiers. Specs are treated as immutable once submitted to a runner.
type Spec struct {
	Kind       Kind
	Key        string
	Attributes map[string]string
}

// Attr returns the named attribute, or fallback when it is unset.
func (s Spec) Attr(name, fallback string) string {
	if v, ok := s.Attributes[name]; ok && v != "" {
		return v
	}
	return fallback
}

// HasAttr reports whether the named attribute is set to a non-empty value.
func (s Spec) HasAttr(name string) bool {
	v, ok := s.Attributes[name]
	return ok && v != ""
}
