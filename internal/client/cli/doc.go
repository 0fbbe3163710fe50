// Package cli implements the interactive handover terminal client.
//
// The client logs a user in by name, remembers the session the user is
// working in, and offers line commands over the gRPC API: listing and
// creating sessions, joining and leaving them, registering patients and
// working through their task checklists. A background watcher pings the
// server and switches the prompt between online and offline.
package cli
