package icsr

// Attr is a single XML attribute. Attribute order is preserved as set.
type Attr struct {
	Name  string
	Value string
}

// Node is a generic labeled tree node: tag name, ordered attributes,
// optional text content and ordered children. The assembler composes the
// full ICSR document out of these; the serializer renders them without
// mutation.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// NewNode creates a node with the given tag name.
func NewNode(tag string) *Node {
	return &Node{Tag: tag}
}

// Set adds or replaces an attribute, keeping first-set order, and returns
// the node for chaining.
func (n *Node) Set(name, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	return n
}

// SetText sets the node's text content and returns the node.
func (n *Node) SetText(text string) *Node {
	n.Text = text
	return n
}

// Child appends a new child element and returns it.
func (n *Node) Child(tag string) *Node {
	child := NewNode(tag)
	n.Children = append(n.Children, child)
	return child
}

// Append attaches an existing node as a child. Nil children are ignored so
// section builders can return nil for omitted content.
func (n *Node) Append(child *Node) *Node {
	if child != nil {
		n.Children = append(n.Children, child)
	}
	return n
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns the first direct child with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// FindAll returns all direct children with the given tag.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}
