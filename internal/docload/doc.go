// Package docload loads document pages in cancellable background
// sessions. A session extracts pages in fixed-size batches and hands
// each batch to the consumer through a rendezvous, reading ahead at
// most one batch, so cancellation takes effect within a single batch
// boundary and peak memory stays proportional to the batch size.
// Delivered pages remain replayable after the session ends.
package docload
