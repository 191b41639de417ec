// Package persist is the settings persistence engine: a process-wide
// in-memory cache of the settings record, mirrored to disk by a single
// background write-back task.
//
// Callers read and mutate the cache synchronously through Get and Set;
// they never block on disk I/O. The background task samples the cache
// every period, detects mutation by whole-record comparison against its
// private snapshot, and after a quiet interval of unchanged ticks flushes
// the record through the durable store. Bursts of rapid mutations (a
// volume slider, say) therefore collapse into a single flash write.
//
// One Manager owns the whole engine. Init loads the cache from the
// primary file, the backup, or schema defaults (in that order) and starts
// the task; Deinit stops the task and joins it. Get and Set outside the
// Initialized state fail with ErrNotRunning.
package persist
