// Package backend defines the southbound radio-control contract.
//
// The coordinator treats the backend as an opaque, slow, blocking
// collaborator. Both operations are assumed idempotent and internally
// thread-safe across distinct radio types; the coordinator only promises
// never to issue two concurrent SetAll calls for the same type.
package backend
