package form

import "strconv"

// Button is a submit, image, reset or plain button. Buttons hold no
// parameter value; a submit or image button adds its own parameters only
// when it triggers the submission.
type Button struct {
	name     string
	value    string
	id       string
	kind     Kind
	disabled bool
}

func (b *Button) Name() string   { return b.name }
func (b *Button) Value() string  { return b.value }
func (b *Button) ID() string     { return b.id }
func (b *Button) Kind() Kind     { return b.kind }
func (b *Button) Disabled() bool { return b.disabled }

// IsImage reports whether the button reports a click position
func (b *Button) IsImage() bool { return b.kind == KindImage }

// IsSubmit reports whether the button submits its form
func (b *Button) IsSubmit() bool { return b.kind == KindSubmit || b.kind == KindImage }

// Contribute emits the parameters the button adds when it triggers a
// submission: name=value for a submit button, name.x and name.y for an
// image button.
func (b *Button) Contribute(p ParameterProcessor, x, y int) error {
	if b.kind == KindImage {
		prefix := ""
		if b.name != "" {
			prefix = b.name + "."
		}
		if err := p.AddParameter(prefix+"x", strconv.Itoa(x)); err != nil {
			return err
		}
		return p.AddParameter(prefix+"y", strconv.Itoa(y))
	}
	if b.name == "" {
		return nil
	}
	return p.AddParameter(b.name, b.value)
}

func (b *Button) clone() *Button {
	dup := *b
	return &dup
}
