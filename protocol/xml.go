package protocol

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/shape"
)

// marshalXML renders value (a Go-level map[string]any/[]any/leaf keyed by
// shape member name, the same convention shape.ToWireTree consumes)
// against shapeName as an XML document with rootName as the outer
// element, driving the stdlib token-stream Encoder directly since the
// wire shape is only known at runtime — mirroring classic aws-sdk-go's
// xmlutil approach to the same data-driven problem.
func marshalXML(svc *descriptor.Service, shapeName, rootName string, value any) ([]byte, error) {
	sh, ok := svc.Shape(shapeName)
	if !ok {
		return nil, fmt.Errorf("protocol: unknown shape %s", shapeName)
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := writeXMLElement(enc, svc, sh, rootName, value); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXMLElement(enc *xml.Encoder, svc *descriptor.Service, sh descriptor.Shape, name string, value any) error {
	if value == nil {
		return nil
	}
	switch sh.Type {
	case descriptor.TypeStructure:
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("protocol: xml encode %s: want map[string]any, got %T", name, value)
		}
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for memberName, member := range sh.Members {
			if member.Location != "" && member.Location != descriptor.LocationPayload {
				continue
			}
			val, present := m[memberName]
			if !present || val == nil {
				continue
			}
			memberShape, ok := svc.Shape(member.ShapeName)
			if !ok {
				continue
			}
			wireName := memberName
			if member.LocationName != "" {
				wireName = member.LocationName
			}
			if err := writeXMLElement(enc, svc, memberShape, wireName, val); err != nil {
				return err
			}
		}
		return enc.EncodeToken(xml.EndElement{Name: start.Name})

	case descriptor.TypeList:
		list, ok := value.([]any)
		if !ok {
			return fmt.Errorf("protocol: xml encode %s: want []any, got %T", name, value)
		}
		elemName := "member"
		var elemShapeName string
		if sh.Member != nil {
			elemShapeName = sh.Member.ShapeName
			if sh.Member.LocationName != "" {
				elemName = sh.Member.LocationName
			}
		}
		elemShape, _ := svc.Shape(elemShapeName)

		if sh.Flattened {
			flatName := name
			if sh.Member != nil && sh.Member.LocationName != "" {
				flatName = elemName
			}
			for _, elem := range list {
				if err := writeXMLElement(enc, svc, elemShape, flatName, elem); err != nil {
					return err
				}
			}
			return nil
		}
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, elem := range list {
			if err := writeXMLElement(enc, svc, elemShape, elemName, elem); err != nil {
				return err
			}
		}
		return enc.EncodeToken(xml.EndElement{Name: start.Name})

	case descriptor.TypeMap:
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("protocol: xml encode %s: want map[string]any, got %T", name, value)
		}
		var valShape descriptor.Shape
		if sh.Value != nil {
			valShape, _ = svc.Shape(sh.Value.ShapeName)
		}
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for k, v := range m {
			entry := xml.StartElement{Name: xml.Name{Local: "entry"}}
			if err := enc.EncodeToken(entry); err != nil {
				return err
			}
			keyEl := xml.StartElement{Name: xml.Name{Local: "key"}}
			enc.EncodeToken(keyEl)
			enc.EncodeToken(xml.CharData(k))
			enc.EncodeToken(xml.EndElement{Name: keyEl.Name})
			if err := writeXMLElement(enc, svc, valShape, "value", v); err != nil {
				return err
			}
			if err := enc.EncodeToken(xml.EndElement{Name: entry.Name}); err != nil {
				return err
			}
		}
		return enc.EncodeToken(xml.EndElement{Name: start.Name})

	default:
		s, err := shape.EncodeLeaf(sh, value, shape.ContextBody)
		if err != nil {
			return err
		}
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData(s)); err != nil {
			return err
		}
		return enc.EncodeToken(xml.EndElement{Name: start.Name})
	}
}

// xmlNode is a generic parsed XML element: repeated child elements keyed
// by local name, plus any direct character data.
type xmlNode struct {
	children map[string][]*xmlNode
	text     string
}

// parseXMLDocument reads the first element of data and returns its local
// name and parsed subtree.
func parseXMLDocument(data []byte) (string, *xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			node, err := parseXMLNode(dec, start)
			return start.Name.Local, node, err
		}
	}
}

func parseXMLNode(dec *xml.Decoder, _ xml.StartElement) (*xmlNode, error) {
	node := &xmlNode{children: map[string][]*xmlNode{}}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseXMLNode(dec, t)
			if err != nil {
				return nil, err
			}
			node.children[t.Name.Local] = append(node.children[t.Name.Local], child)
		case xml.CharData:
			node.text += string(t)
		case xml.EndElement:
			return node, nil
		}
	}
}

// xmlNodeToValue converts a parsed xmlNode into the Go-level value sh
// describes, reversing writeXMLElement.
func xmlNodeToValue(svc *descriptor.Service, sh descriptor.Shape, node *xmlNode) (any, error) {
	if node == nil {
		return nil, nil
	}
	switch sh.Type {
	case descriptor.TypeStructure:
		out := map[string]any{}
		for name, member := range sh.Members {
			if member.Location != "" && member.Location != descriptor.LocationPayload {
				continue
			}
			wireName := name
			if member.LocationName != "" {
				wireName = member.LocationName
			}
			memberShape, ok := svc.Shape(member.ShapeName)
			if !ok {
				continue
			}
			if memberShape.Type == descriptor.TypeList && memberShape.Flattened {
				elemName := wireName
				if memberShape.Member != nil && memberShape.Member.LocationName != "" {
					elemName = memberShape.Member.LocationName
				}
				children := node.children[elemName]
				if len(children) == 0 {
					continue
				}
				var elemShape descriptor.Shape
				if memberShape.Member != nil {
					elemShape, _ = svc.Shape(memberShape.Member.ShapeName)
				}
				list := make([]any, 0, len(children))
				for _, c := range children {
					v, err := xmlNodeToValue(svc, elemShape, c)
					if err != nil {
						return nil, err
					}
					list = append(list, v)
				}
				out[name] = list
				continue
			}
			children := node.children[wireName]
			if len(children) == 0 {
				continue
			}
			v, err := xmlNodeToValue(svc, memberShape, children[0])
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil

	case descriptor.TypeList:
		elemName := "member"
		var elemShape descriptor.Shape
		if sh.Member != nil {
			elemShape, _ = svc.Shape(sh.Member.ShapeName)
			if sh.Member.LocationName != "" {
				elemName = sh.Member.LocationName
			}
		}
		children := node.children[elemName]
		list := make([]any, 0, len(children))
		for _, c := range children {
			v, err := xmlNodeToValue(svc, elemShape, c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil

	case descriptor.TypeMap:
		var valShape descriptor.Shape
		if sh.Value != nil {
			valShape, _ = svc.Shape(sh.Value.ShapeName)
		}
		out := map[string]any{}
		for _, entry := range node.children["entry"] {
			keyNodes := entry.children["key"]
			valNodes := entry.children["value"]
			if len(keyNodes) == 0 || len(valNodes) == 0 {
				continue
			}
			v, err := xmlNodeToValue(svc, valShape, valNodes[0])
			if err != nil {
				return nil, err
			}
			out[strings.TrimSpace(keyNodes[0].text)] = v
		}
		return out, nil

	default:
		return shape.DecodeLeaf(sh, strings.TrimSpace(node.text), shape.ContextBody)
	}
}
