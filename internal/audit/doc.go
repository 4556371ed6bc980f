// Package audit writes an append-only JSONL record of every backend
// invocation the coordinator performs.
package audit
