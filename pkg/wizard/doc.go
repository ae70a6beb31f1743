// Package wizard sequences a form.Controller across an ordered list of steps.
//
// Each step names the fields that gate leaving it. Advance validates only
// those fields, so fields belonging to later steps never block earlier ones.
// Advancing from the last step submits the form; the wizard stays on the
// last step whatever the outcome, and the caller decides where to go after a
// successful submission. Retreat moves back one step and never changes field
// state.
package wizard
