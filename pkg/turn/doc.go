// Package turn runs single conversational turns against a thread.
//
// A turn loads the thread's history, prefixes the system prompt, appends the
// new user message, asks the model for one reply and stores the user message
// and reply together. Nothing is stored when the model call fails.
//
// Turns on the same thread are serialized through a per-thread lane, so each
// turn sees the full result of the one before it. Turns on different threads
// run concurrently.
package turn
