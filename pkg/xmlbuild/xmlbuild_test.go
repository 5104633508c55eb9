package xmlbuild

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderNestedDocument(t *testing.T) {
	root := New("winstrom").Attr("version", "1.0")
	inv := root.Child("faktura")
	inv.ChildText("kod", "F-1")
	inv.ChildText("popis", "a < b & c")

	out := string(root.Document())
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing xml header: %s", out)
	}
	if !strings.Contains(out, `<winstrom version="1.0">`) {
		t.Fatalf("missing root attrs: %s", out)
	}
	if !strings.Contains(out, "<kod>F-1</kod>") {
		t.Fatalf("missing child text: %s", out)
	}
	if !strings.Contains(out, "<popis>a &lt; b &amp; c</popis>") {
		t.Fatalf("text not escaped: %s", out)
	}
}

func TestRenderEmptyElementSelfCloses(t *testing.T) {
	root := New("doc")
	root.Child("empty")

	var buf bytes.Buffer
	root.Render(&buf)
	if !strings.Contains(buf.String(), "<empty />") {
		t.Fatalf("expected self-closing element: %s", buf.String())
	}
}

func TestAttrValueEscaped(t *testing.T) {
	root := New("doc").Attr("note", "a & b")

	var buf bytes.Buffer
	root.Render(&buf)
	if !strings.Contains(buf.String(), "&amp;") {
		t.Fatalf("ampersand not escaped: %s", buf.String())
	}
}
