/*
Package script runs page scripts that manipulate forms.

Scripts run in a goja VM with host globals such as require and process
removed. The form under edit is bound to the global `form`:

	form.getParameter(name)           first value
	form.getParameterValues(name)     all values
	form.setParameter(name, value)
	form.setParameterValues(name, [values])
	form.toggle(name, value)          flip a checkbox
	form.setChecked(name, value, on)
	form.removeParameter(name)
	form.reset()
	form.parameterNames()

Every mutator validates exactly like the Go API. A rejected value throws in
the script; Run stops and returns the validation error with its kind intact.

Execution is bounded by Config.Timeout and by the caller's context.
*/
package script
