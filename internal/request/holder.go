package request

import (
	"github.com/GriffinCanCode/headless/internal/form"
	"github.com/GriffinCanCode/headless/internal/shared/errs"
)

// ParameterHolder is the parameter set of one outgoing request
type ParameterHolder interface {
	SetParameter(name string, values ...string) error
	SetFiles(name string, files ...form.UploadFile) error
	RemoveParameter(name string) error
	ParameterNames() []string
	ParameterValues(name string) []string
	IsFileParameter(name string) bool
	IsMultipart() bool
	// Process emits every parameter in submission order
	Process(p form.ParameterProcessor) error
}

// formHolder validates every change against a snapshot of the form the
// request came from. In permissive mode names the form does not define are
// kept as extra parameters after the form's own.
type formHolder struct {
	form       *form.Form
	extras     *uncheckedHolder
	permissive bool

	button     *form.Button
	x, y       int
	positioned bool
}

func newFormHolder(f *form.Form, permissive bool) *formHolder {
	return &formHolder{
		form:       f,
		extras:     newUncheckedHolder(f.IsMultipart()),
		permissive: permissive,
	}
}

func (h *formHolder) SetParameter(name string, values ...string) error {
	if h.form.HasParameter(name) {
		return h.form.SetParameterValues(name, values)
	}
	if !h.permissive {
		return errs.NoSuchParameter(name)
	}
	return h.extras.SetParameter(name, values...)
}

func (h *formHolder) SetFiles(name string, files ...form.UploadFile) error {
	if h.form.HasParameter(name) {
		return h.form.SetFiles(name, files...)
	}
	if !h.permissive {
		return errs.NoSuchParameter(name)
	}
	return h.extras.SetFiles(name, files...)
}

func (h *formHolder) RemoveParameter(name string) error {
	if h.form.HasParameter(name) {
		return h.form.RemoveParameter(name)
	}
	if !h.permissive {
		return errs.NoSuchParameter(name)
	}
	return h.extras.RemoveParameter(name)
}

func (h *formHolder) ParameterNames() []string {
	return append(h.form.ParameterNames(), h.extras.ParameterNames()...)
}

func (h *formHolder) ParameterValues(name string) []string {
	if h.form.HasParameter(name) {
		return h.form.ParameterValues(name)
	}
	return h.extras.ParameterValues(name)
}

func (h *formHolder) IsFileParameter(name string) bool {
	if p := h.form.Parameter(name); p != nil {
		return p.IsFile()
	}
	return h.extras.IsFileParameter(name)
}

func (h *formHolder) IsMultipart() bool {
	return h.form.IsMultipart()
}

// Process emits the form's controls, then extras, then the submit button
func (h *formHolder) Process(p form.ParameterProcessor) error {
	if err := h.form.Contribute(p); err != nil {
		return err
	}
	if err := h.extras.Process(p); err != nil {
		return err
	}
	if h.button != nil {
		return h.button.Contribute(p, h.x, h.y)
	}
	return nil
}

func (h *formHolder) setClickPosition(x, y int) error {
	if h.button == nil || !h.button.IsImage() {
		name := ""
		if h.button != nil {
			name = h.button.Name()
		}
		return errs.IllegalButtonPosition(name)
	}
	h.x, h.y, h.positioned = x, y, true
	return nil
}

// uncheckedHolder keeps any parameter in insertion order, for requests
// built by hand rather than from a form
type uncheckedHolder struct {
	names     []string
	values    map[string][]string
	files     map[string][]form.UploadFile
	multipart bool
}

func newUncheckedHolder(multipart bool) *uncheckedHolder {
	return &uncheckedHolder{
		values:    make(map[string][]string),
		files:     make(map[string][]form.UploadFile),
		multipart: multipart,
	}
}

func (h *uncheckedHolder) touch(name string) {
	if _, ok := h.values[name]; ok {
		return
	}
	if _, ok := h.files[name]; ok {
		return
	}
	h.names = append(h.names, name)
}

// add appends one value, keeping earlier values of the same name
func (h *uncheckedHolder) add(name, value string) {
	h.touch(name)
	h.values[name] = append(h.values[name], value)
}

func (h *uncheckedHolder) SetParameter(name string, values ...string) error {
	h.touch(name)
	delete(h.files, name)
	h.values[name] = append([]string{}, values...)
	return nil
}

func (h *uncheckedHolder) SetFiles(name string, files ...form.UploadFile) error {
	if !h.multipart {
		return errs.MultipartFormRequired(name)
	}
	h.touch(name)
	delete(h.values, name)
	h.files[name] = append([]form.UploadFile{}, files...)
	return nil
}

func (h *uncheckedHolder) RemoveParameter(name string) error {
	delete(h.values, name)
	delete(h.files, name)
	for i, n := range h.names {
		if n == name {
			h.names = append(h.names[:i:i], h.names[i+1:]...)
			break
		}
	}
	return nil
}

func (h *uncheckedHolder) ParameterNames() []string {
	return append([]string(nil), h.names...)
}

func (h *uncheckedHolder) ParameterValues(name string) []string {
	if files, ok := h.files[name]; ok {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.Filename
		}
		return names
	}
	return append([]string(nil), h.values[name]...)
}

func (h *uncheckedHolder) IsFileParameter(name string) bool {
	_, ok := h.files[name]
	return ok
}

func (h *uncheckedHolder) IsMultipart() bool {
	return h.multipart
}

func (h *uncheckedHolder) Process(p form.ParameterProcessor) error {
	for _, name := range h.names {
		for _, v := range h.values[name] {
			if err := p.AddParameter(name, v); err != nil {
				return err
			}
		}
		for _, f := range h.files[name] {
			if err := p.AddFile(name, f); err != nil {
				return err
			}
		}
	}
	return nil
}
