// Package capture schedules timed screenshots of a live page and decides how
// the page must move between them.
//
// A recording runs in three steps:
//   - Classifier inspects the page once and returns a Verdict: leave it
//     still, scroll it natively, or drive it with wheel events.
//   - NewStrategy turns the Verdict into a FixedViewport, PagedScroll or
//     WheelDriven strategy.
//   - The strategy splits the frame budget into Segments, moves the page
//     between segments and hands every frame to a FrameSink in strict index
//     order, pacing captures with a PacingClock.
//
// Everything runs on the caller's goroutine. The Surface is held exclusively
// for the lifetime of a Session and only one operation is ever in flight.
package capture
