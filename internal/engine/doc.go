// Package engine reconciles the tab set pushed by the remote authority with
// the client's long-lived tab containers.
//
// The engine owns the ordered container list and the identity of every
// container. Callers only ever hold identities; they create backing content
// for identities reported in Update.Created and dispose it for those in
// Update.Destroyed. The container the user is looking at never changes
// identity: when the tab it shows disappears, the container is morphed to
// show the effective active tab instead.
//
// An Engine is not safe for concurrent use. Confine it to one goroutine.
package engine
