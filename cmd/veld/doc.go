// Command veld is the control CLI for the veldd runtime daemon: status,
// delivery history, event injection, collection triggers, and configuration
// management over the daemon's Unix socket.
package main
