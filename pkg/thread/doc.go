// Package thread stores conversation transcripts keyed by thread ID.
//
// Invariants:
// - Load on an unknown thread ID returns an empty transcript, never an error.
// - Append extends a thread atomically: a batch is never split or dropped,
//   and concurrent batches on the same thread land one after the other.
// - Transcripts only grow; no message is edited or removed.
//
// Usage:
//
//	store := thread.NewMemoryStore(thread.Options{})
//	_ = store.Append(ctx, "vvk", thread.UserMessage("hello"), thread.AssistantMessage("hi"))
//	msgs, _ := store.Load(ctx, "vvk")
//	_ = msgs
package thread
