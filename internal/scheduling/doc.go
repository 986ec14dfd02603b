// Package scheduling implements the placement engine for class timetables:
// grid-aligned time arithmetic, interval conflict detection, remaining-unit
// tracking, earliest-fit slot search and the bounded auto scheduler.
//
// The package is pure. Every function receives the bookings and Settings it
// needs and never touches storage, so callers own atomicity and must
// re-validate against fresh state before committing.
package scheduling
