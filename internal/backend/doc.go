// Package backend is the model invocation layer: one call, one credential,
// one classified outcome. Retries live in package retry.
package backend
