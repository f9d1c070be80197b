package form

// Kind is the closed set of control variants, chosen once at parse time
type Kind int

const (
	KindText Kind = iota
	KindHidden
	KindCheckbox
	KindRadio
	KindSelect
	KindFile
	KindSubmit
	KindImage
	KindPreset
	KindButton
)

var kindNames = [...]string{
	KindText:     "text",
	KindHidden:   "hidden",
	KindCheckbox: "checkbox",
	KindRadio:    "radio",
	KindSelect:   "select",
	KindFile:     "file",
	KindSubmit:   "submit",
	KindImage:    "image",
	KindPreset:   "preset",
	KindButton:   "button",
}

// String returns the lower-case kind name
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsButton reports whether the kind triggers or resets a form rather than holding a value
func (k Kind) IsButton() bool {
	return k == KindSubmit || k == KindImage || k == KindButton
}
