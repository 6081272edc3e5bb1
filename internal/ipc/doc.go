// Package ipc exposes kernel control over JSON-RPC on a Unix domain socket.
// The veld CLI is the primary client.
package ipc
