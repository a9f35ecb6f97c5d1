// Package state stores per-chat conversation sessions. It is generic over
// the session type so bots keep their own typed state while sharing the
// storage backends.
package state
