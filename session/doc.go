// Package session owns the current bearer token.
//
// A [Store] is a single mutable slot: absent at process start, set on login,
// cleared on logout or when the token turns out to be undecodable. Every
// mutation goes through the one owning Store instance so it stays traceable
// and testable in isolation. There is no coordination between concurrent
// writers; the last write wins and stale in-flight results are discarded.
//
// [MemoryStore] is the default. [RedisStore] keeps the same single-slot
// contract under one Redis key for server-rendered portal processes that
// must survive restarts or share the session across instances.
package session
