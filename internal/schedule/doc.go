// Package schedule manages room events and resolves them into concrete
// occurrences on a calendar date.
//
// An event is either a one-off with absolute start and end instants, or a
// weekly recurring template with a weekday set and time-of-day clocks. The
// two shapes are distinct types behind the Schedule interface, so an event
// can never carry both interpretations at once.
//
// Resolution is pure: ResolveOccurrence takes an event, a target date, and
// a timezone, and returns the concrete start and end instants for that date
// or nil if the event does not occur. The same function backs the kiosk
// schedule endpoint and admin previews.
package schedule
