package mapper

import (
	"encoding/xml"
	"strings"
)

// element is the in-memory subtree of one record. Only a single record is
// held at a time; the rest of the document stays in the token stream.
type element struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*element
}

// readElement consumes tokens up to the end of start and returns the subtree.
func readElement(dec *xml.Decoder, start xml.StartElement) (*element, error) {
	el := &element{name: start.Name.Local, attrs: start.Attr}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readElement(dec, t)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}

// child returns the first direct child with the given name, or nil.
func (e *element) child(name string) *element {
	if e == nil {
		return nil
	}
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// all returns every direct child with the given name.
func (e *element) all(name string) []*element {
	if e == nil {
		return nil
	}
	var out []*element
	for _, c := range e.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// path walks direct children by name.
func (e *element) path(names ...string) *element {
	cur := e
	for _, n := range names {
		cur = cur.child(n)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// textAt returns the trimmed text at path, "" when absent.
func (e *element) textAt(names ...string) string {
	if c := e.path(names...); c != nil {
		return c.text
	}
	return ""
}

// find searches the subtree depth-first for the first element named name.
func (e *element) find(name string) *element {
	if e == nil {
		return nil
	}
	for _, c := range e.children {
		if c.name == name {
			return c
		}
		if f := c.find(name); f != nil {
			return f
		}
	}
	return nil
}

func (e *element) attr(name string) string {
	if e == nil {
		return ""
	}
	for _, a := range e.attrs {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}
