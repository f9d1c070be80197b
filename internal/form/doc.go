// Package form models HTML forms as validated, mutable parameter sets.
//
// A Form is built once from a parsed document. Its controls are a closed set
// of variants (text, hidden, preset, checkbox, radio, select, file, and the
// submit/image/plain buttons); same-named controls are grouped into a
// Parameter that distributes assigned values across them:
//   - preset and hidden controls must get their fixed value back
//   - checkboxes, radio groups and selects take values from their option sets
//   - text controls take whatever is left, one value each
//
// Every assignment is validated when it is made and is all-or-nothing, so a
// Form never holds a value its controls would reject.
//
// Example Usage:
//
//	forms, err := form.ParseHTML(page)
//	f := forms[0]
//	if err := f.SetParameter("color", "blue"); err != nil {
//		// errs.ErrIllegalParameterValue: blue is not an option
//	}
package form
