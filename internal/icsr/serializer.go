package icsr

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// xmlDeclaration is emitted ahead of every rendered document.
const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Render serializes the document tree to XML text. Pretty-printing indents
// nested elements by two spaces; without it the document is emitted as a
// single compact structure. Identical trees always render to identical
// bytes.
func Render(root *Node, pretty bool) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)

	encoder := xml.NewEncoder(&buf)
	if pretty {
		encoder.Indent("", "  ")
	}

	if err := encodeNode(encoder, root); err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	if err := encoder.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush document: %w", err)
	}

	return buf.String(), nil
}

func encodeNode(encoder *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Tag}}
	for _, attr := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: attr.Name},
			Value: attr.Value,
		})
	}

	if err := encoder.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := encoder.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, child := range n.Children {
		if err := encodeNode(encoder, child); err != nil {
			return err
		}
	}
	return encoder.EncodeToken(xml.EndElement{Name: start.Name})
}

// WriteFile renders the tree and writes it to path, creating parent
// directories as needed.
func WriteFile(root *Node, path string, pretty bool) error {
	rendered, err := Render(root, pretty)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}
