// Package formdef loads declarative form definitions and turns them into
// live form controllers and wizards.
//
// A definition lists the form's fields in display order, optionally groups
// them into wizard steps, and picks a validator: either one of the built-in
// rule sets (rules: signin) or a JSON schema with per-keyword messages and
// cross-field refinements. Definitions are YAML or JSON; the login and signup
// forms ship embedded and are available through Embedded.
package formdef
