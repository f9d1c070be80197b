package form

import (
	"strings"

	"github.com/GriffinCanCode/headless/internal/shared/errs"
)

const (
	EncodingURL       = "application/x-www-form-urlencoded"
	EncodingMultipart = "multipart/form-data"
)

// Attributes are the submission attributes of a <form> element
type Attributes struct {
	Name          string
	ID            string
	Action        string
	Method        string
	Enctype       string
	AcceptCharset string
	Target        string
}

// Form is the live value model of one HTML form
type Form struct {
	attrs    Attributes
	controls []control
	buttons  []*Button
	params   []*Parameter
	byName   map[string]*Parameter
}

func newForm(attrs Attributes) *Form {
	attrs.Method = strings.ToUpper(strings.TrimSpace(attrs.Method))
	if attrs.Method == "" {
		attrs.Method = "GET"
	}
	attrs.Enctype = strings.ToLower(strings.TrimSpace(attrs.Enctype))
	if attrs.Enctype == "" {
		attrs.Enctype = EncodingURL
	}
	return &Form{attrs: attrs, byName: make(map[string]*Parameter)}
}

func (f *Form) add(c control) {
	f.controls = append(f.controls, c)
}

func (f *Form) addButton(b *Button) {
	f.buttons = append(f.buttons, b)
}

// index groups controls into parameters in order of first appearance
func (f *Form) index() {
	f.params = nil
	f.byName = make(map[string]*Parameter)
	for _, c := range f.controls {
		p, ok := f.byName[c.Name()]
		if !ok {
			p = &Parameter{name: c.Name()}
			f.byName[c.Name()] = p
			f.params = append(f.params, p)
		}
		p.controls = append(p.controls, c)
	}
}

func (f *Form) Name() string          { return f.attrs.Name }
func (f *Form) ID() string            { return f.attrs.ID }
func (f *Form) Action() string        { return f.attrs.Action }
func (f *Form) Method() string        { return f.attrs.Method }
func (f *Form) Enctype() string       { return f.attrs.Enctype }
func (f *Form) AcceptCharset() string { return f.attrs.AcceptCharset }
func (f *Form) Target() string        { return f.attrs.Target }

// Attributes returns the form's submission attributes
func (f *Form) Attributes() Attributes { return f.attrs }

// IsMultipart reports whether the form submits multipart/form-data
func (f *Form) IsMultipart() bool {
	return f.attrs.Enctype == EncodingMultipart
}

// Controls returns the value-holding controls in document order
func (f *Form) Controls() []Control {
	out := make([]Control, len(f.controls))
	for i, c := range f.controls {
		out[i] = c
	}
	return out
}

// Parameters returns the form's parameters in document order
func (f *Form) Parameters() []*Parameter {
	return append([]*Parameter(nil), f.params...)
}

// ParameterNames returns the distinct control names in document order
func (f *Form) ParameterNames() []string {
	names := make([]string, len(f.params))
	for i, p := range f.params {
		names[i] = p.name
	}
	return names
}

// Parameter returns the parameter named name, or nil
func (f *Form) Parameter(name string) *Parameter {
	return f.byName[name]
}

// HasParameter reports whether the form defines name
func (f *Form) HasParameter(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// ParameterValue returns the first current value of name, or ""
func (f *Form) ParameterValue(name string) string {
	if values := f.ParameterValues(name); len(values) > 0 {
		return values[0]
	}
	return ""
}

// ParameterValues returns the current values of name
func (f *Form) ParameterValues(name string) []string {
	if p := f.byName[name]; p != nil {
		return p.Values()
	}
	return nil
}

// SetParameter sets name to a single value
func (f *Form) SetParameter(name, value string) error {
	return f.SetParameterValues(name, []string{value})
}

// SetParameterValues replaces the values of name. The assignment is
// validated against every control sharing the name; on failure the form is
// unchanged.
func (f *Form) SetParameterValues(name string, values []string) error {
	p := f.byName[name]
	if p == nil {
		return errs.NoSuchParameter(name)
	}
	return p.SetValues(values)
}

// SetFiles chooses the files uploaded through the file controls named name
func (f *Form) SetFiles(name string, files ...UploadFile) error {
	p := f.byName[name]
	if p == nil {
		return errs.NoSuchParameter(name)
	}
	if !p.hasFileControl() {
		return errs.IllegalFileParameter(name)
	}
	if !f.IsMultipart() {
		return errs.MultipartFormRequired(name)
	}
	return p.SetFiles(files)
}

// RemoveParameter clears every value of name
func (f *Form) RemoveParameter(name string) error {
	p := f.byName[name]
	if p == nil {
		return errs.NoSuchParameter(name)
	}
	if p.IsFile() {
		return p.SetFiles(nil)
	}
	return p.SetValues(nil)
}

// SetChecked checks or unchecks the checkbox named name with the given
// value. An empty value selects the parameter's only checkbox.
func (f *Form) SetChecked(name, value string, checked bool) error {
	p := f.byName[name]
	if p == nil {
		return errs.NoSuchParameter(name)
	}
	cb := p.checkbox(value)
	if cb == nil {
		return errs.IllegalParameterValue(name, value, p.Options())
	}
	cb.checked = checked
	return nil
}

// Toggle flips the checkbox selected as in SetChecked
func (f *Form) Toggle(name, value string) error {
	p := f.byName[name]
	if p == nil {
		return errs.NoSuchParameter(name)
	}
	cb := p.checkbox(value)
	if cb == nil {
		return errs.IllegalParameterValue(name, value, p.Options())
	}
	cb.checked = !cb.checked
	return nil
}

// Reset restores every control to its parsed state
func (f *Form) Reset() {
	for _, c := range f.controls {
		c.reset()
	}
}

// Clone returns an independent copy of the form and its current state
func (f *Form) Clone() *Form {
	dup := &Form{attrs: f.attrs}
	for _, c := range f.controls {
		dup.controls = append(dup.controls, c.clone())
	}
	for _, b := range f.buttons {
		dup.buttons = append(dup.buttons, b.clone())
	}
	dup.index()
	return dup
}

// Buttons returns every button in document order
func (f *Form) Buttons() []*Button {
	return append([]*Button(nil), f.buttons...)
}

// SubmitButtons returns the submit and image buttons in document order
func (f *Form) SubmitButtons() []*Button {
	var out []*Button
	for _, b := range f.buttons {
		if b.IsSubmit() {
			out = append(out, b)
		}
	}
	return out
}

// SubmitButton finds a submit button by name and, when value is not empty,
// by value
func (f *Form) SubmitButton(name, value string) *Button {
	for _, b := range f.buttons {
		if b.IsSubmit() && b.name == name && (value == "" || b.value == value) {
			return b
		}
	}
	return nil
}

// IndexOfButton returns the position of b in Buttons, or -1
func (f *Form) IndexOfButton(b *Button) int {
	for i, candidate := range f.buttons {
		if candidate == b {
			return i
		}
	}
	return -1
}

// Contribute emits the current value of every enabled control in document
// order. File controls emit uploads on a multipart form and the chosen
// filename otherwise.
func (f *Form) Contribute(p ParameterProcessor) error {
	for _, c := range f.controls {
		if c.Disabled() {
			continue
		}
		if fc, ok := c.(*fileControl); ok {
			if err := f.contributeFiles(p, fc); err != nil {
				return err
			}
			continue
		}
		for _, v := range c.Values() {
			if err := p.AddParameter(c.Name(), v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Form) contributeFiles(p ParameterProcessor, fc *fileControl) error {
	files := fc.files
	if len(files) == 0 {
		files = []UploadFile{{ContentType: "application/octet-stream"}}
	}
	for _, file := range files {
		var err error
		if f.IsMultipart() {
			err = p.AddFile(fc.name, file)
		} else {
			err = p.AddParameter(fc.name, file.Filename)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
