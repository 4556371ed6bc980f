// Package radio defines the radio kill targets and their per-radio tasks.
//
// A Task is the debounced state holder for one radio type. It carries two
// separate synchronization primitives on purpose: the debounce lock is a
// short critical section reachable from event-delivery goroutines, while
// the serialization mutex is held only by workers across the backend call.
// Collapsing them into one would block event delivery on the backend.
package radio
