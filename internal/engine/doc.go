// Package engine drives the boundary between a pure core and the host.
//
// ARCHITECTURE:
//
// Single-Writer Message Loop:
// Every message bound for the core goes through one FIFO queue and is
// processed by a single goroutine. This ensures:
// - The core never sees two updates at once
// - The model is replaced atomically, one cycle at a time
// - Journals of the same scenario are identical across runs
//
// Cycle:
//  1. A message is dequeued (init, channel message, or host message)
//  2. A message-with-effect is prepared first: its effect runs through
//     Dispatcher.RunOne and, once the result arrives, the message with
//     every "$CAPTURE_VALUE" replaced is queued as a pure message
//  3. The core's update produces a new model and a batch of effects
//  4. The model is stored and the view rendered
//  5. Declared subscriptions are reconciled against running ones
//  6. The effect batch is dispatched
//
// Listener callbacks, timer ticks and effect results only enqueue. They
// never run a cycle on their own goroutine.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Trace events are stamped with a monotonic seq from Clock.Next.
// NEVER use wall-clock timestamps for ordering.
//
// Log and Continue:
// A failing core call abandons its cycle and keeps the previous model.
// Only INVALID_SINGLE_EFFECT and an exceeded cycle quota are fatal.
package engine
