// Package workflow implements the provisioning workflow runner: an
// idempotent create-if-absent step, readiness polling, an ordered cleanup
// registry, and a sequential runner that ties them together.
//
// The package is provider-agnostic. All external effects go through the
// Provider interface, so workflows can be driven against AWS (see
// internal/platform/aws) or against an in-memory fake in tests.
package workflow
