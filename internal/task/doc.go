// Package task defines task records and the entity bound to each row.
//
// A task is created active with a start time of "now" and a user-chosen
// end time. Completing a task overwrites its end time with the completion
// instant and clears the active flag; the transition is one-way.
//
// # Render States
//
//   - "pending": active and the end time is still in the future
//   - "overdue": active and the end time has passed
//   - "done": completed
//
// The state is a pure function of the record and the time it is evaluated
// at. It is captured once when an Entity is built and never re-evaluated
// by the entity itself.
//
// # Timestamp Format
//
// Timestamps are stored and displayed as "2006-01-02 15:04:05" in the
// local time zone with one-second resolution. FormatTime and ParseTime
// round-trip exactly.
package task
