package binstruct

import (
	"fmt"

	"github.com/marmos91/smbwire/pkg/binstruct/binenc"
)

// Alternative is one arm of a choice.
type Alternative struct {
	Name string
	Tag  uint64
	Type Type
}

// ChoiceSpec describes a tagged union.
type ChoiceSpec struct {
	Alternatives []Alternative
	// Select peeks the tag from the leading bytes.
	Select func(peek []byte) (uint64, bool)
	// Fallback is used for unknown tags; nil makes them an error.
	Fallback Type
}

// FallbackName is reported by Selected when the fallback is active.
const FallbackName = "fallback"

// Choice holds exactly one materialized alternative.
type Choice struct {
	spec     *ChoiceSpec
	selected string
	fixed    bool
	active   Value
	anchor   int
	outer    *Struct
}

// NewChoice returns a choice that infers its alternative when read.
func NewChoice(spec ChoiceSpec) *Choice {
	if len(spec.Alternatives) == 0 && spec.Fallback == nil {
		panic(fmt.Errorf("%w: choice without alternatives", ErrInvalidConfig))
	}
	if spec.Select == nil {
		panic(fmt.Errorf("%w: choice without selector", ErrInvalidConfig))
	}
	return &Choice{spec: &spec}
}

// ChoiceOf returns a Type of choices inferring the alternative from the
// leading bytes.
func ChoiceOf(spec ChoiceSpec) Type {
	NewChoice(spec)
	return func() Value { return NewChoice(spec) }
}

// ChoiceAs returns a Type of choices preselecting the named alternative.
func ChoiceAs(spec ChoiceSpec, name string) Type {
	c := NewChoice(spec)
	if err := c.Select(name); err != nil {
		panic(err)
	}
	return func() Value {
		c := NewChoice(spec)
		_ = c.Select(name)
		return c
	}
}

func (c *Choice) find(name string) (Alternative, bool) {
	for _, alt := range c.spec.Alternatives {
		if alt.Name == name {
			return alt, true
		}
	}
	return Alternative{}, false
}

func (c *Choice) byTag(tag uint64) (string, Type, error) {
	for _, alt := range c.spec.Alternatives {
		if alt.Tag == tag {
			return alt.Name, alt.Type, nil
		}
	}
	if c.spec.Fallback != nil {
		return FallbackName, c.spec.Fallback, nil
	}
	return "", nil, fmt.Errorf("%w: %d", ErrUnknownDiscriminant, tag)
}

func (c *Choice) activate(name string, t Type) {
	c.selected = name
	c.active = t()
	if c.outer != nil {
		if l, ok := c.active.(outerLinker); ok {
			l.setOuter(c.outer)
		}
	}
}

// Select materializes the named alternative and pins it for later reads.
// Any previously materialized alternative is discarded.
func (c *Choice) Select(name string) error {
	if name == FallbackName && c.spec.Fallback != nil {
		c.activate(name, c.spec.Fallback)
		c.fixed = true
		return nil
	}
	alt, ok := c.find(name)
	if !ok {
		return fmt.Errorf("%w: no alternative %q", ErrInvalidConfig, name)
	}
	c.activate(alt.Name, alt.Type)
	c.fixed = true
	return nil
}

// SelectTag materializes the alternative registered for tag.
func (c *Choice) SelectTag(tag uint64) error {
	name, t, err := c.byTag(tag)
	if err != nil {
		return err
	}
	c.activate(name, t)
	c.fixed = true
	return nil
}

// Selected returns the active alternative name, "" when none.
func (c *Choice) Selected() string { return c.selected }

// Active returns the materialized alternative, or nil.
func (c *Choice) Active() Value { return c.active }

// Read uses the pinned alternative, or infers one from the leading tag.
func (c *Choice) Read(data []byte) (int, error) {
	if !c.fixed {
		tag, ok := c.spec.Select(data)
		if !ok {
			if c.spec.Fallback == nil {
				return 0, fmt.Errorf("%w: no tag", ErrUnknownDiscriminant)
			}
			c.activate(FallbackName, c.spec.Fallback)
		} else {
			name, t, err := c.byTag(tag)
			if err != nil {
				return 0, err
			}
			c.activate(name, t)
		}
	} else {
		name := c.selected
		if name == FallbackName {
			c.activate(name, c.spec.Fallback)
		} else {
			alt, _ := c.find(name)
			c.activate(name, alt.Type)
		}
	}
	if a, ok := c.active.(Anchorer); ok {
		a.SetAnchor(c.anchor)
	}
	return c.active.Read(data)
}

func (c *Choice) Write(w *binenc.Writer) {
	if c.active != nil {
		c.active.Write(w)
	}
}

func (c *Choice) Size() int {
	if c.active == nil {
		return 0
	}
	return c.active.Size()
}

func (c *Choice) Recompute() error {
	if c.active == nil {
		return nil
	}
	return recomputeAt(nil, c.active, c.anchor)
}

func (c *Choice) untrail() {
	if c.active != nil {
		untrail(c.active)
	}
}

func (c *Choice) Anchor() int { return c.anchor }

func (c *Choice) SetAnchor(at int) { c.anchor = at }

func (c *Choice) setOuter(s *Struct) {
	c.outer = s
	if l, ok := c.active.(outerLinker); ok {
		l.setOuter(s)
	}
}

func (c *Choice) Human() string {
	if c.active == nil {
		return ""
	}
	return c.selected + ": " + Human(c.active)
}
