// Package field holds per-field form state: the current value, the latest
// validation message, and whether the field has been touched. The set of
// field names is fixed when the Store is created. Stores carry no validation
// logic of their own; the form controller recomputes errors after each edit
// and writes them back with ApplyErrors.
package field
