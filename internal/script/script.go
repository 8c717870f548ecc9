package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a named list of steps replayed against a fresh document.
type Script struct {
	Name  string `yaml:"name"`
	Text  string `yaml:"text"`
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Insert    *InsertStep  `yaml:"insert,omitempty"`
	Delete    *RangeStep   `yaml:"delete,omitempty"`
	Replace   *ReplaceStep `yaml:"replace,omitempty"`
	Select    *SelectStep  `yaml:"select,omitempty"`
	Group     *GroupStep   `yaml:"group,omitempty"`
	Undo      int          `yaml:"undo,omitempty"`
	Redo      int          `yaml:"redo,omitempty"`
	GoTo      *int         `yaml:"goto,omitempty"`
	ClearRedo bool         `yaml:"clear_redo,omitempty"`
	Save      bool         `yaml:"save,omitempty"`
	Lua       *LuaStep     `yaml:"lua,omitempty"`
	Expect    *Expect      `yaml:"expect,omitempty"`
}

// InsertStep inserts Text at At.
type InsertStep struct {
	At   int    `yaml:"at"`
	Text string `yaml:"text"`
}

// RangeStep names the byte range [From, To).
type RangeStep struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// ReplaceStep replaces [From, To) with Text.
type ReplaceStep struct {
	From int    `yaml:"from"`
	To   int    `yaml:"to"`
	Text string `yaml:"text"`
}

// SelectStep sets the selection.
type SelectStep struct {
	Anchor int `yaml:"anchor"`
	Head   int `yaml:"head"`
}

// GroupStep applies its edit steps as one undoable step.
type GroupStep struct {
	Label string `yaml:"label"`
	Steps []Step `yaml:"steps"`
}

// LuaStep runs a registered Lua command. It is written either as the
// command name or as a mapping with name and args.
type LuaStep struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// UnmarshalYAML accepts a bare command name.
func (l *LuaStep) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		l.Name = value.Value
		return nil
	}
	type plain LuaStep
	return value.Decode((*plain)(l))
}

// Expect checks document state. A bare string checks the text only.
// Unset fields are not checked.
type Expect struct {
	Text      *string `yaml:"text"`
	Selection *string `yaml:"selection"`
	Current   *int    `yaml:"current"`
	CanUndo   *bool   `yaml:"can_undo"`
	CanRedo   *bool   `yaml:"can_redo"`
	Modified  *bool   `yaml:"modified"`
}

// UnmarshalYAML accepts a bare expected text.
func (e *Expect) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		text := value.Value
		e.Text = &text
		return nil
	}
	type plain Expect
	return value.Decode((*plain)(e))
}

// Kind returns the name of the step's action, or "" if none is set.
func (s Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) kinds() []string {
	var kinds []string
	add := func(set bool, name string) {
		if set {
			kinds = append(kinds, name)
		}
	}
	add(s.Insert != nil, "insert")
	add(s.Delete != nil, "delete")
	add(s.Replace != nil, "replace")
	add(s.Select != nil, "select")
	add(s.Group != nil, "group")
	add(s.Undo != 0, "undo")
	add(s.Redo != 0, "redo")
	add(s.GoTo != nil, "goto")
	add(s.ClearRedo, "clear_redo")
	add(s.Save, "save")
	add(s.Lua != nil, "lua")
	add(s.Expect != nil, "expect")
	return kinds
}

// isEdit reports whether the step changes the document and so may appear
// inside a group.
func (s Step) isEdit() bool {
	switch s.Kind() {
	case "insert", "delete", "replace", "select", "lua":
		return true
	}
	return false
}

// Load reads a script file.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Parse decodes a script from YAML.
func Parse(data []byte) (*Script, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads YAML from r and validates the result. Unknown keys are
// rejected.
func Decode(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyScript
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step holds exactly one action with sane
// arguments.
func (s *Script) Validate() error {
	return validateSteps(s.Steps, false)
}

func validateSteps(steps []Step, grouped bool) error {
	for i, step := range steps {
		kinds := step.kinds()
		switch {
		case len(kinds) == 0:
			return &StepError{Index: i, Err: ErrInvalidStep}
		case len(kinds) > 1:
			return &StepError{Index: i, Kind: kinds[0], Err: fmt.Errorf("%w: also has %v", ErrInvalidStep, kinds[1:])}
		}

		kind := kinds[0]
		switch {
		case grouped && !step.isEdit():
			return &StepError{Index: i, Kind: kind, Err: fmt.Errorf("%w: not allowed in a group", ErrInvalidStep)}
		case step.Undo < 0 || step.Redo < 0:
			return &StepError{Index: i, Kind: kind, Err: fmt.Errorf("%w: negative count", ErrInvalidStep)}
		case step.GoTo != nil && *step.GoTo < 0:
			return &StepError{Index: i, Kind: kind, Err: fmt.Errorf("%w: negative node", ErrInvalidStep)}
		case step.Lua != nil && step.Lua.Name == "":
			return &StepError{Index: i, Kind: kind, Err: fmt.Errorf("%w: missing command name", ErrInvalidStep)}
		case step.Group != nil:
			if err := validateSteps(step.Group.Steps, true); err != nil {
				return &StepError{Index: i, Kind: kind, Err: err}
			}
		}
	}
	return nil
}
