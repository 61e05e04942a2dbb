// Package events publishes task lifecycle events.
//
// The task service emits an event after each committed change to a task
// (scheduled, completed, missed, reassigned). Handlers subscribe through an
// EventEmitter and never see changes that were rolled back. A failing
// handler does not undo the change that produced the event.
package events
