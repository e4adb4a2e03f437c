package frame

// DrawFrame is the unit the stage hands to the mixer: a leaf frame, or a
// composite of child draw frames, with a transform applied to the subtree.
// The zero value is the empty draw frame.
type DrawFrame struct {
	frame     *Frame
	children  []DrawFrame
	transform Transform
	wrapped   bool
}

// FromFrame wraps a produced frame as a leaf draw frame.
func FromFrame(f *Frame) DrawFrame {
	return DrawFrame{frame: f, transform: IdentityTransform()}
}

// Composite builds a draw frame containing the given frames as children.
func Composite(frames []DrawFrame) DrawFrame {
	return DrawFrame{children: frames, transform: IdentityTransform()}
}

// Push wraps d with a stage transform. The wrapper is what Pop strips when
// a route needs the undecorated frame.
func Push(d DrawFrame, t Transform) DrawFrame {
	return DrawFrame{
		children:  []DrawFrame{d},
		transform: t,
		wrapped:   true,
	}
}

// Pop strips the outermost stage decoration, returning the frame as the
// producer emitted it. A frame without decoration is returned unchanged.
func Pop(d DrawFrame) DrawFrame {
	if d.wrapped && len(d.children) == 1 {
		return d.children[0]
	}
	return d
}

// Empty reports whether the draw frame holds nothing to draw.
func (d DrawFrame) Empty() bool {
	if d.frame != nil && !d.frame.Empty() {
		return false
	}
	for _, c := range d.children {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Transform returns the transform applied to this subtree.
func (d DrawFrame) Transform() Transform {
	return d.transform
}

// Leaf returns the leaf frame, or nil for composites.
func (d DrawFrame) Leaf() *Frame {
	return d.frame
}

// Children returns the child draw frames, nil for leaves.
func (d DrawFrame) Children() []DrawFrame {
	return d.children
}

// LeafCount returns the number of non-empty leaf frames in the subtree.
func (d DrawFrame) LeafCount() int {
	if d.frame != nil {
		if d.frame.Empty() {
			return 0
		}
		return 1
	}
	n := 0
	for _, c := range d.children {
		n += c.LeafCount()
	}
	return n
}

// Walk visits every leaf frame in the subtree, depth first, handing the
// visitor the transform accumulated from the root.
func (d DrawFrame) Walk(visit func(f *Frame, t Transform)) {
	d.walk(IdentityTransform(), visit)
}

func (d DrawFrame) walk(acc Transform, visit func(f *Frame, t Transform)) {
	acc = Combine(acc, d.transform)
	if d.frame != nil {
		visit(d.frame, acc)
		return
	}
	for _, c := range d.children {
		c.walk(acc, visit)
	}
}
