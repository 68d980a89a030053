/*
Package session serializes access to form sessions.

HTTP and MCP requests for the same session may arrive concurrently, and on different
replicas. Manager wraps a ports.StateStore with a per-session mutex (reference counted,
so idle sessions cost nothing) and, when configured, a ports.DistributedLocker. Update
is the read-modify-write primitive the adapters use with the engine's stateless API.
*/
package session
