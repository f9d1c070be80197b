package form

import (
	"github.com/GriffinCanCode/headless/internal/shared/errs"
)

// Parameter is every control of a form sharing one name. Values assigned to
// it are distributed across those controls; an assignment that any control
// rejects, or that leaves values unclaimed, changes nothing.
type Parameter struct {
	name     string
	controls []control
}

// Name returns the parameter name
func (p *Parameter) Name() string {
	return p.name
}

// Controls returns the controls behind the parameter in document order
func (p *Parameter) Controls() []Control {
	out := make([]Control, len(p.controls))
	for i, c := range p.controls {
		out[i] = c
	}
	return out
}

// Values returns the values the parameter would submit now
func (p *Parameter) Values() []string {
	var values []string
	for _, c := range p.controls {
		values = append(values, c.Values()...)
	}
	return values
}

// Options returns the union of legal values, or nil if any enabled control
// accepts free text or none is enabled
func (p *Parameter) Options() []string {
	var allowed []string
	for _, c := range p.controls {
		if c.Disabled() {
			continue
		}
		opts := c.Options()
		if opts == nil {
			return nil
		}
		allowed = append(allowed, opts...)
	}
	return allowed
}

// IsFile reports whether the parameter only holds file uploads
func (p *Parameter) IsFile() bool {
	for _, c := range p.controls {
		if c.Kind() != KindFile {
			return false
		}
	}
	return len(p.controls) > 0
}

// IsMultiValued reports whether the parameter can submit more than one value
func (p *Parameter) IsMultiValued() bool {
	return p.single() == nil
}

// IsReadOnly reports whether every enabled control is fixed
func (p *Parameter) IsReadOnly() bool {
	for _, c := range p.controls {
		if !c.Disabled() && !c.ReadOnly() {
			return false
		}
	}
	return true
}

// IsDisabled reports whether no control of the parameter can submit
func (p *Parameter) IsDisabled() bool {
	for _, c := range p.controls {
		if !c.Disabled() {
			return false
		}
	}
	return true
}

// single returns the only enabled control when it accepts one value
func (p *Parameter) single() control {
	var only control
	for _, c := range p.controls {
		if c.Disabled() {
			continue
		}
		if only != nil {
			return nil
		}
		only = c
	}
	if only == nil || only.MultiValued() {
		return nil
	}
	return only
}

func (p *Parameter) snapshot() func() {
	restores := make([]func(), len(p.controls))
	for i, c := range p.controls {
		restores[i] = c.snapshot()
	}
	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}

// SetValues replaces the parameter's values
func (p *Parameter) SetValues(values []string) error {
	if p.IsFile() {
		return errs.IllegalNonFileParameter(p.name)
	}
	if p.single() != nil && len(values) > 1 {
		return errs.SingleValuedParameter(p.name, values)
	}

	restore := p.snapshot()
	remaining := values
	for _, pass := range claimPasses {
		for _, c := range p.controls {
			var err error
			remaining, err = c.claim(pass, remaining)
			if err != nil {
				restore()
				return err
			}
		}
	}

	if len(remaining) > 0 {
		restore()
		if allowed := p.Options(); allowed != nil {
			return errs.IllegalParameterValue(p.name, remaining[0], allowed)
		}
		return errs.UnusedParameterValue(p.name, remaining[0])
	}
	return nil
}

// SetFiles replaces the files chosen for the parameter's file controls
func (p *Parameter) SetFiles(files []UploadFile) error {
	var fileControls []*fileControl
	for _, c := range p.controls {
		if fc, ok := c.(*fileControl); ok {
			fileControls = append(fileControls, fc)
		}
	}
	if len(fileControls) == 0 {
		return errs.IllegalFileParameter(p.name)
	}

	restore := p.snapshot()
	remaining := files
	for _, fc := range fileControls {
		remaining = fc.claimFiles(remaining)
	}
	if len(remaining) > 0 {
		restore()
		return errs.UnusedUploadFile(p.name, len(files)-len(remaining), len(files))
	}
	return nil
}

// Files returns the files chosen across the parameter's file controls
func (p *Parameter) Files() []UploadFile {
	var files []UploadFile
	for _, c := range p.controls {
		if fc, ok := c.(*fileControl); ok && !fc.disabled {
			files = append(files, fc.files...)
		}
	}
	return files
}

func (p *Parameter) hasFileControl() bool {
	for _, c := range p.controls {
		if c.Kind() == KindFile {
			return true
		}
	}
	return false
}

func (p *Parameter) checkbox(value string) *checkbox {
	var match *checkbox
	for _, c := range p.controls {
		cb, ok := c.(*checkbox)
		if !ok || cb.disabled {
			continue
		}
		if value == "" {
			if match != nil {
				return nil
			}
			match = cb
			continue
		}
		if cb.value == value {
			return cb
		}
	}
	return match
}
