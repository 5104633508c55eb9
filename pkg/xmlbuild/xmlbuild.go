// Package xmlbuild assembles small XML documents element by element. The
// export surfaces emit whatever fields a record carries, so documents are
// built dynamically instead of through struct marshalling.
package xmlbuild

import (
	"bytes"
	"encoding/xml"
)

type Attr struct {
	Name  string
	Value string
}

// Element is a named node with optional attributes, text and children.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Element
}

func New(name string) *Element {
	return &Element{Name: name}
}

// Attr adds an attribute and returns the element for chaining.
func (e *Element) Attr(name, value string) *Element {
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Child appends a new empty child element and returns it.
func (e *Element) Child(name string) *Element {
	c := &Element{Name: name}
	e.Children = append(e.Children, c)
	return c
}

// ChildText appends a child carrying only character data.
func (e *Element) ChildText(name, text string) *Element {
	c := &Element{Name: name, Text: text}
	e.Children = append(e.Children, c)
	return c
}

// Render writes the element tree without an XML declaration.
func (e *Element) Render(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if e.Text == "" && len(e.Children) == 0 {
		buf.WriteString(" />")
		return
	}
	buf.WriteByte('>')
	if e.Text != "" {
		xml.EscapeText(buf, []byte(e.Text))
	}
	for _, c := range e.Children {
		c.Render(buf)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteByte('>')
}

// Document renders the tree prefixed with a UTF-8 XML declaration.
func (e *Element) Document() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	e.Render(&buf)
	return buf.Bytes()
}
