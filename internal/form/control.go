package form

import (
	"github.com/GriffinCanCode/headless/internal/shared/errs"
)

// Control is the capability every form control variant shares
type Control interface {
	Name() string
	Kind() Kind
	Disabled() bool
	ReadOnly() bool
	MultiValued() bool
	// Options returns the legal values, or nil when the control accepts any value
	Options() []string
	// Values returns what the control would submit now, in order
	Values() []string
}

// claimPass orders value distribution across the controls sharing a name:
// fixed values are claimed first, then option-constrained values, then free text.
type claimPass int

const (
	claimRequired claimPass = iota
	claimUnique
	claimAny
)

var claimPasses = []claimPass{claimRequired, claimUnique, claimAny}

// control is implemented by every value-holding variant
type control interface {
	Control
	// claim takes the values the control accepts in this pass and returns the rest
	claim(pass claimPass, values []string) ([]string, error)
	reset()
	// snapshot captures the current state and returns a func restoring it
	snapshot() func()
	clone() control
}

// removeFirst returns values without the first occurrence of v
func removeFirst(values []string, v string) ([]string, bool) {
	for i, candidate := range values {
		if candidate == v {
			rest := make([]string, 0, len(values)-1)
			rest = append(rest, values[:i]...)
			return append(rest, values[i+1:]...), true
		}
	}
	return values, false
}

// textControl covers text, password, textarea and hidden inputs. A read-only
// text control is a preset: its value is fixed and must be resubmitted as is.
type textControl struct {
	name     string
	kind     Kind
	value    string
	initial  string
	disabled bool
	readOnly bool
}

func newText(name, value string, kind Kind, disabled, readOnly bool) *textControl {
	if readOnly && kind == KindText {
		kind = KindPreset
	}
	return &textControl{
		name:     name,
		kind:     kind,
		value:    value,
		initial:  value,
		disabled: disabled,
		readOnly: readOnly,
	}
}

func (c *textControl) Name() string      { return c.name }
func (c *textControl) Kind() Kind        { return c.kind }
func (c *textControl) Disabled() bool    { return c.disabled }
func (c *textControl) ReadOnly() bool    { return c.readOnly }
func (c *textControl) MultiValued() bool { return false }

func (c *textControl) Options() []string {
	if c.readOnly {
		return []string{c.value}
	}
	return nil
}

func (c *textControl) Values() []string {
	if c.disabled {
		return nil
	}
	return []string{c.value}
}

func (c *textControl) claim(pass claimPass, values []string) ([]string, error) {
	if c.disabled {
		return values, nil
	}
	if c.readOnly {
		if pass != claimRequired {
			return values, nil
		}
		rest, found := removeFirst(values, c.value)
		if !found {
			return values, errs.MissingParameterValue(c.name, []string{c.value}, values)
		}
		return rest, nil
	}
	if pass != claimAny {
		return values, nil
	}
	if len(values) == 0 {
		c.value = ""
		return values, nil
	}
	c.value = values[0]
	return values[1:], nil
}

func (c *textControl) reset() { c.value = c.initial }

func (c *textControl) snapshot() func() {
	saved := c.value
	return func() { c.value = saved }
}

func (c *textControl) clone() control {
	dup := *c
	return &dup
}

// checkbox contributes its value only while checked
type checkbox struct {
	name     string
	value    string
	checked  bool
	initial  bool
	disabled bool
}

func (c *checkbox) Name() string      { return c.name }
func (c *checkbox) Kind() Kind        { return KindCheckbox }
func (c *checkbox) Disabled() bool    { return c.disabled }
func (c *checkbox) ReadOnly() bool    { return false }
func (c *checkbox) MultiValued() bool { return false }
func (c *checkbox) Options() []string { return []string{c.value} }

// Value returns the value submitted when checked
func (c *checkbox) Value() string { return c.value }

// Checked reports the current state
func (c *checkbox) Checked() bool { return c.checked }

func (c *checkbox) Values() []string {
	if c.disabled || !c.checked {
		return nil
	}
	return []string{c.value}
}

func (c *checkbox) claim(pass claimPass, values []string) ([]string, error) {
	if c.disabled || pass != claimUnique {
		return values, nil
	}
	rest, found := removeFirst(values, c.value)
	c.checked = found
	return rest, nil
}

func (c *checkbox) reset() { c.checked = c.initial }

func (c *checkbox) snapshot() func() {
	saved := c.checked
	return func() { c.checked = saved }
}

func (c *checkbox) clone() control {
	dup := *c
	return &dup
}

type radioButton struct {
	value    string
	disabled bool
}

// radioGroup is every radio button sharing one name. Holding a single
// selected index keeps at most one member checked.
type radioGroup struct {
	name     string
	buttons  []radioButton
	selected int
	initial  int
}

func newRadioGroup(name string) *radioGroup {
	return &radioGroup{name: name, selected: -1, initial: -1}
}

func (g *radioGroup) add(value string, checked, disabled bool) {
	g.buttons = append(g.buttons, radioButton{value: value, disabled: disabled})
	if checked {
		g.selected = len(g.buttons) - 1
		g.initial = g.selected
	}
}

func (g *radioGroup) Name() string      { return g.name }
func (g *radioGroup) Kind() Kind        { return KindRadio }
func (g *radioGroup) ReadOnly() bool    { return false }
func (g *radioGroup) MultiValued() bool { return false }

// Disabled reports whether every button in the group is disabled
func (g *radioGroup) Disabled() bool {
	for _, b := range g.buttons {
		if !b.disabled {
			return false
		}
	}
	return true
}

func (g *radioGroup) Options() []string {
	options := make([]string, 0, len(g.buttons))
	for _, b := range g.buttons {
		if !b.disabled {
			options = append(options, b.value)
		}
	}
	return options
}

func (g *radioGroup) Values() []string {
	if g.selected < 0 || g.buttons[g.selected].disabled {
		return nil
	}
	return []string{g.buttons[g.selected].value}
}

// Checked returns the value of the checked member, or ""
func (g *radioGroup) Checked() string {
	if g.selected < 0 {
		return ""
	}
	return g.buttons[g.selected].value
}

func (g *radioGroup) claim(pass claimPass, values []string) ([]string, error) {
	if pass != claimUnique {
		return values, nil
	}
	g.selected = -1
	for _, v := range values {
		for i, b := range g.buttons {
			if b.disabled || b.value != v {
				continue
			}
			g.selected = i
			rest, _ := removeFirst(values, v)
			return rest, nil
		}
	}
	return values, nil
}

func (g *radioGroup) reset() { g.selected = g.initial }

func (g *radioGroup) snapshot() func() {
	saved := g.selected
	return func() { g.selected = saved }
}

func (g *radioGroup) clone() control {
	dup := *g
	dup.buttons = append([]radioButton(nil), g.buttons...)
	return &dup
}

type option struct {
	value    string
	label    string
	selected bool
	initial  bool
}

// selectControl is a single or multiple selection list
type selectControl struct {
	name     string
	options  []option
	multiple bool
	disabled bool
}

func (s *selectControl) Name() string      { return s.name }
func (s *selectControl) Kind() Kind        { return KindSelect }
func (s *selectControl) Disabled() bool    { return s.disabled }
func (s *selectControl) ReadOnly() bool    { return false }
func (s *selectControl) MultiValued() bool { return s.multiple }

func (s *selectControl) Options() []string {
	values := make([]string, len(s.options))
	for i, o := range s.options {
		values[i] = o.value
	}
	return values
}

// Labels returns the displayed option texts in option order
func (s *selectControl) Labels() []string {
	labels := make([]string, len(s.options))
	for i, o := range s.options {
		labels[i] = o.label
	}
	return labels
}

func (s *selectControl) Values() []string {
	if s.disabled {
		return nil
	}
	var values []string
	for _, o := range s.options {
		if o.selected {
			values = append(values, o.value)
		}
	}
	return values
}

func (s *selectControl) claim(pass claimPass, values []string) ([]string, error) {
	if s.disabled || pass != claimUnique {
		return values, nil
	}
	if s.multiple {
		rest := values
		for i := range s.options {
			var found bool
			rest, found = removeFirst(rest, s.options[i].value)
			s.options[i].selected = found
		}
		return rest, nil
	}

	for i := range s.options {
		s.options[i].selected = false
	}
	for _, v := range values {
		for i := range s.options {
			if s.options[i].value == v {
				s.options[i].selected = true
				rest, _ := removeFirst(values, v)
				return rest, nil
			}
		}
	}
	return values, nil
}

func (s *selectControl) reset() {
	for i := range s.options {
		s.options[i].selected = s.options[i].initial
	}
}

func (s *selectControl) snapshot() func() {
	saved := make([]bool, len(s.options))
	for i, o := range s.options {
		saved[i] = o.selected
	}
	return func() {
		for i := range s.options {
			s.options[i].selected = saved[i]
		}
	}
}

func (s *selectControl) clone() control {
	dup := *s
	dup.options = append([]option(nil), s.options...)
	return &dup
}

// fileControl holds the files chosen for upload. Without the multiple
// attribute it takes at most one file.
type fileControl struct {
	name     string
	files    []UploadFile
	multiple bool
	disabled bool
}

func (f *fileControl) Name() string      { return f.name }
func (f *fileControl) Kind() Kind        { return KindFile }
func (f *fileControl) Disabled() bool    { return f.disabled }
func (f *fileControl) ReadOnly() bool    { return false }
func (f *fileControl) MultiValued() bool { return f.multiple }
func (f *fileControl) Options() []string { return nil }

// Values returns the chosen filenames
func (f *fileControl) Values() []string {
	if f.disabled {
		return nil
	}
	names := make([]string, len(f.files))
	for i, file := range f.files {
		names[i] = file.Filename
	}
	return names
}

// Files returns the chosen files
func (f *fileControl) Files() []UploadFile {
	return append([]UploadFile(nil), f.files...)
}

func (f *fileControl) claim(_ claimPass, values []string) ([]string, error) {
	return values, nil
}

func (f *fileControl) claimFiles(files []UploadFile) []UploadFile {
	if f.disabled {
		return files
	}
	switch {
	case len(files) == 0:
		f.files = nil
		return files
	case f.multiple:
		f.files = append([]UploadFile(nil), files...)
		return nil
	default:
		f.files = []UploadFile{files[0]}
		return files[1:]
	}
}

func (f *fileControl) reset() { f.files = nil }

func (f *fileControl) snapshot() func() {
	saved := f.files
	return func() { f.files = saved }
}

func (f *fileControl) clone() control {
	dup := *f
	dup.files = append([]UploadFile(nil), f.files...)
	return &dup
}
