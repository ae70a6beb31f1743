// Package validation defines the validator contract shared by every form: a
// pure function from a complete field snapshot to a Result holding one
// message per invalid field. Validators are recomputed from scratch on each
// change, so cross-field rules such as password confirmation always see the
// full snapshot.
//
// Two interchangeable ways of producing a Validator live here. Rule builders
// (Email, LengthBetween, Equals, ...) compose into hand-written validators
// like Signin and Signup. NewSchemaValidator derives one from a JSON schema
// using kin-openapi, with WithRefinement layering cross-field rules on top.
package validation
