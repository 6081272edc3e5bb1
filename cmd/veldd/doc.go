// Command veldd runs the Veld runtime daemon: it boots the kernel with its
// background maintenance worker and serves control RPCs on a Unix socket
// until terminated.
package main
