package cell

// Unbounded marks a constraint axis with no practical limit. Terminal grids
// are measured in cells, so a 32-bit ceiling is effectively infinite.
const Unbounded = 1 << 30

// Size is a width/height pair measured in terminal cells.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether the size has no area on either axis.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Rect is a node's frame inside its section layout, in cells.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Size returns the rect's extent.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// MaxY returns the first row below the rect.
func (r Rect) MaxY() int {
	return r.Y + r.Height
}

// Intersects reports whether the rect overlaps the row window [top, bottom).
func (r Rect) Intersects(top, bottom int) bool {
	return r.Y < bottom && r.MaxY() > top
}

// Constraint bounds a measurement between a minimum and maximum size.
type Constraint struct {
	Min Size
	Max Size
}

// Fixed returns a constraint that admits exactly one size.
func Fixed(width, height int) Constraint {
	s := Size{Width: width, Height: height}
	return Constraint{Min: s, Max: s}
}

// Width returns the common list constraint: an exact width with unbounded
// height.
func Width(width int) Constraint {
	return Constraint{
		Min: Size{Width: width, Height: 0},
		Max: Size{Width: width, Height: Unbounded},
	}
}

// Range returns a constraint spanning min to max.
func Range(min, max Size) Constraint {
	return Constraint{Min: min, Max: max}
}

// Unconstrained returns a constraint that admits any size.
func Unconstrained() Constraint {
	return Constraint{Max: Size{Width: Unbounded, Height: Unbounded}}
}

// Normalized returns the constraint with negative bounds zeroed and each Min
// pulled down to its Max, so a malformed constraint degrades instead of
// corrupting measurements.
func (c Constraint) Normalized() Constraint {
	if c.Min.Width < 0 {
		c.Min.Width = 0
	}
	if c.Min.Height < 0 {
		c.Min.Height = 0
	}
	if c.Max.Width < 0 {
		c.Max.Width = 0
	}
	if c.Max.Height < 0 {
		c.Max.Height = 0
	}
	if c.Min.Width > c.Max.Width {
		c.Min.Width = c.Max.Width
	}
	if c.Min.Height > c.Max.Height {
		c.Min.Height = c.Max.Height
	}
	return c
}

// Clamp fits s into the constraint's bounds.
func (c Constraint) Clamp(s Size) Size {
	c = c.Normalized()
	if s.Width < c.Min.Width {
		s.Width = c.Min.Width
	}
	if s.Width > c.Max.Width {
		s.Width = c.Max.Width
	}
	if s.Height < c.Min.Height {
		s.Height = c.Min.Height
	}
	if s.Height > c.Max.Height {
		s.Height = c.Max.Height
	}
	return s
}
