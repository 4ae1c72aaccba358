package workflow

import "context"

// MockProvider is a func-field test double for Provider. Fields left nil
// fall back to inert defaults so tests only wire what they assert on.
type MockProvider struct {
	LookupFunc func(ctx context.Context, spec Spec) (*Handle, error)
	CreateFunc func(ctx context.Context, spec Spec) (*Handle, error)
	StatusFunc func(ctx context.Context, handle *Handle) (Status, error)
	DeleteFunc func(ctx context.Context, handle *Handle) error

	LookupCalls int
	CreateCalls int
	StatusCalls int
	DeleteCalls int
}

func (m *MockProvider) Lookup(ctx context.Context, spec Spec) (*Handle, error) {
	m.LookupCalls++
	if m.LookupFunc == nil {
		return nil, nil
	}
	return m.LookupFunc(ctx, spec)
}

func (m *MockProvider) Create(ctx context.Context, spec Spec) (*Handle, error) {
	m.CreateCalls++
	if m.CreateFunc == nil {
		return &Handle{ID: "mock-" + spec.Key, Kind: spec.Kind, Status: StatusPending, Spec: spec}, nil
	}
	return m.CreateFunc(ctx, spec)
}

func (m *MockProvider) Status(ctx context.Context, handle *Handle) (Status, error) {
	m.StatusCalls++
	if m.StatusFunc == nil {
		return StatusReady, nil
	}
	return m.StatusFunc(ctx, handle)
}

func (m *MockProvider) Delete(ctx context.Context, handle *Handle) error {
	m.DeleteCalls++
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, handle)
}
