package icsr

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Node {
	root := NewNode("message").Set("xmlns", "urn:test").Set("version", "1")
	root.Child("id").Set("extension", "M-1").Set("root", "1.2.3")
	section := root.Child("section")
	section.Child("text").SetText("a narrative with <brackets> & ampersands")
	section.Child("value").Set("xsi:type", "PQ").Set("value", "54").Set("unit", "a")
	return root
}

// parsedElement is a whitespace-insensitive view of rendered XML used to
// compare pretty and compact output structurally.
type parsedElement struct {
	Tag      string
	Attrs    []xml.Attr
	Text     string
	Children []*parsedElement
}

func parseXML(t *testing.T, raw string) *parsedElement {
	t.Helper()
	decoder := xml.NewDecoder(strings.NewReader(raw))

	var stack []*parsedElement
	var root *parsedElement
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		switch tok := token.(type) {
		case xml.StartElement:
			elem := &parsedElement{Tag: tok.Name.Local, Attrs: append([]xml.Attr(nil), tok.Attr...)}
			if len(stack) == 0 {
				root = elem
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, elem)
			}
			stack = append(stack, elem)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += strings.TrimSpace(string(tok))
			}
		}
	}
	require.NotNil(t, root)
	return root
}

func TestRenderStartsWithDeclaration(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		rendered, err := Render(sampleTree(), pretty)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(rendered, `<?xml version="1.0" encoding="UTF-8"?>`))
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	first, err := Render(sampleTree(), true)
	require.NoError(t, err)
	second, err := Render(sampleTree(), true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPrettyAndCompactAgreeStructurally(t *testing.T) {
	pretty, err := Render(sampleTree(), true)
	require.NoError(t, err)
	compact, err := Render(sampleTree(), false)
	require.NoError(t, err)

	assert.NotEqual(t, pretty, compact)
	assert.NotContains(t, compact, "\n  ")
	assert.Equal(t, parseXML(t, compact), parseXML(t, pretty))
}

func TestRenderEscapesContent(t *testing.T) {
	rendered, err := Render(sampleTree(), false)
	require.NoError(t, err)
	assert.Contains(t, rendered, "&lt;brackets&gt; &amp; ampersands")

	parsed := parseXML(t, rendered)
	section := parsed.Children[1]
	assert.Equal(t, "a narrative with <brackets> & ampersands", section.Children[0].Text)
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.xml")
	require.NoError(t, WriteFile(sampleTree(), path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rendered, err := Render(sampleTree(), true)
	require.NoError(t, err)
	assert.Equal(t, rendered, string(data))
}

func TestNodeAttrOrderIsPreserved(t *testing.T) {
	n := NewNode("el").Set("b", "1").Set("a", "2").Set("b", "3")

	require.Len(t, n.Attrs, 2)
	assert.Equal(t, Attr{Name: "b", Value: "3"}, n.Attrs[0])
	assert.Equal(t, Attr{Name: "a", Value: "2"}, n.Attrs[1])

	rendered, err := Render(n, false)
	require.NoError(t, err)
	assert.Contains(t, rendered, `<el b="3" a="2">`)
}

func TestNodeFindHelpers(t *testing.T) {
	root := sampleTree()

	assert.NotNil(t, root.Find("id"))
	assert.Nil(t, root.Find("absent"))
	assert.Len(t, root.FindAll("section"), 1)

	extension, ok := root.Find("id").Attr("extension")
	require.True(t, ok)
	assert.Equal(t, "M-1", extension)

	_, ok = root.Find("id").Attr("absent")
	assert.False(t, ok)
}
