// Package concurrent provides small fan-out helpers for independent cluster
// operations such as rendering per-service manifests and best-effort deletes
// during uninstall.
package concurrent
