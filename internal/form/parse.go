package form

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/headless/internal/document"
	"github.com/PuerkitoBio/goquery"
)

type parseConfig struct {
	editableHidden bool
}

// ParseOption configures form extraction
type ParseOption func(*parseConfig)

// WithEditableHidden lets callers change hidden fields. By default a hidden
// field is a preset that must be submitted with its served value.
func WithEditableHidden() ParseOption {
	return func(c *parseConfig) { c.editableHidden = true }
}

// Parse extracts every form from raw response bytes
func Parse(data []byte, contentType string, opts ...ParseOption) ([]*Form, error) {
	doc, err := document.Load(data, contentType)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, opts...), nil
}

// ParseHTML extracts every form from a decoded HTML string
func ParseHTML(htmlStr string, opts ...ParseOption) ([]*Form, error) {
	doc, err := document.LoadString(htmlStr)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, opts...), nil
}

// FromDocument extracts every form of doc in document order
func FromDocument(doc *goquery.Document, opts ...ParseOption) []*Form {
	var forms []*Form
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		forms = append(forms, FromSelection(s, opts...))
	})
	return forms
}

// FromSelection builds the model of one <form> element
func FromSelection(sel *goquery.Selection, opts ...ParseOption) *Form {
	cfg := parseConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := newForm(Attributes{
		Name:          sel.AttrOr("name", ""),
		ID:            sel.AttrOr("id", ""),
		Action:        strings.TrimSpace(sel.AttrOr("action", "")),
		Method:        sel.AttrOr("method", "GET"),
		Enctype:       sel.AttrOr("enctype", EncodingURL),
		AcceptCharset: sel.AttrOr("accept-charset", ""),
		Target:        sel.AttrOr("target", ""),
	})

	radios := make(map[string]*radioGroup)

	sel.Find("input, textarea, select, button").Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("name", "")
		_, disabled := s.Attr("disabled")
		_, readOnly := s.Attr("readonly")

		switch goquery.NodeName(s) {
		case "textarea":
			if name != "" {
				f.add(newText(name, s.Text(), KindText, disabled, readOnly))
			}
		case "select":
			if name != "" {
				f.add(parseSelect(s, name, disabled))
			}
		case "button":
			kind := KindSubmit
			if t := strings.ToLower(s.AttrOr("type", "submit")); t != "submit" {
				kind = KindButton
			}
			f.addButton(&Button{
				name:     name,
				value:    s.AttrOr("value", ""),
				id:       s.AttrOr("id", ""),
				kind:     kind,
				disabled: disabled,
			})
		case "input":
			parseInput(f, s, name, disabled, readOnly, cfg, radios)
		}
	})

	f.index()
	return f
}

func parseInput(f *Form, s *goquery.Selection, name string, disabled, readOnly bool, cfg parseConfig, radios map[string]*radioGroup) {
	typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "text")))
	value := s.AttrOr("value", "")
	_, checked := s.Attr("checked")

	switch typ {
	case "submit", "image", "reset", "button":
		kind := KindButton
		switch typ {
		case "submit":
			kind = KindSubmit
		case "image":
			kind = KindImage
		}
		f.addButton(&Button{
			name:     name,
			value:    value,
			id:       s.AttrOr("id", ""),
			kind:     kind,
			disabled: disabled,
		})
		return
	}

	if name == "" {
		return
	}

	switch typ {
	case "hidden":
		f.add(newText(name, value, KindHidden, disabled, !cfg.editableHidden))
	case "checkbox":
		if value == "" {
			value = "on"
		}
		f.add(&checkbox{name: name, value: value, checked: checked, initial: checked, disabled: disabled})
	case "radio":
		if value == "" {
			value = "on"
		}
		group, ok := radios[name]
		if !ok {
			group = newRadioGroup(name)
			radios[name] = group
			f.add(group)
		}
		group.add(value, checked, disabled)
	case "file":
		_, multiple := s.Attr("multiple")
		f.add(&fileControl{name: name, multiple: multiple, disabled: disabled})
	default:
		f.add(newText(name, value, KindText, disabled, readOnly))
	}
}

func parseSelect(s *goquery.Selection, name string, disabled bool) *selectControl {
	_, multiple := s.Attr("multiple")
	sc := &selectControl{name: name, multiple: multiple, disabled: disabled}

	lastSelected := -1
	s.Find("option").Each(func(i int, o *goquery.Selection) {
		label := strings.TrimSpace(o.Text())
		value, ok := o.Attr("value")
		if !ok {
			value = label
		}
		_, selected := o.Attr("selected")
		if selected {
			lastSelected = i
		}
		sc.options = append(sc.options, option{value: value, label: label, selected: selected})
	})

	if !multiple {
		// a single select shows one option: the last marked one, or the
		// first when it renders as a drop-down
		for i := range sc.options {
			sc.options[i].selected = i == lastSelected
		}
		size, _ := strconv.Atoi(s.AttrOr("size", "1"))
		if lastSelected < 0 && size <= 1 && len(sc.options) > 0 {
			sc.options[0].selected = true
		}
	}
	for i := range sc.options {
		sc.options[i].initial = sc.options[i].selected
	}
	return sc
}
