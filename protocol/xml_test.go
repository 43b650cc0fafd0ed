package protocol

import (
	"strings"
	"testing"

	"github.com/gurre/awsapi/descriptor"
)

func xmlTestService() *descriptor.Service {
	return &descriptor.Service{
		Shapes: map[string]descriptor.Shape{
			"String": {Type: descriptor.TypeString},
			"Tags": {
				Type:  descriptor.TypeMap,
				Key:   &descriptor.Member{ShapeName: "String"},
				Value: &descriptor.Member{ShapeName: "String"},
			},
			"WrappedList": {
				Type:   descriptor.TypeList,
				Member: &descriptor.Member{ShapeName: "String"},
			},
			"FlatList": {
				Type:      descriptor.TypeList,
				Member:    &descriptor.Member{ShapeName: "String", LocationName: "Item"},
				Flattened: true,
			},
			"Widget": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"Name":    {ShapeName: "String"},
					"Tags":    {ShapeName: "Tags"},
					"Wrapped": {ShapeName: "WrappedList"},
					"Flat":    {ShapeName: "FlatList"},
				},
			},
		},
	}
}

func TestMarshalXMLAndParseRoundTrip(t *testing.T) {
	svc := xmlTestService()
	value := map[string]any{
		"Name":    "widget-1",
		"Tags":    map[string]any{"env": "prod"},
		"Wrapped": []any{"a", "b"},
		"Flat":    []any{"x", "y"},
	}

	data, err := marshalXML(svc, "Widget", "Widget", value)
	if err != nil {
		t.Fatalf("marshalXML: %v", err)
	}

	root, node, err := parseXMLDocument(data)
	if err != nil {
		t.Fatalf("parseXMLDocument: %v", err)
	}
	if root != "Widget" {
		t.Errorf("root = %q, want Widget", root)
	}

	sh, _ := svc.Shape("Widget")
	val, err := xmlNodeToValue(svc, sh, node)
	if err != nil {
		t.Fatalf("xmlNodeToValue: %v", err)
	}
	m := val.(map[string]any)
	if m["Name"] != "widget-1" {
		t.Errorf("Name = %v, want widget-1", m["Name"])
	}
	wrapped, ok := m["Wrapped"].([]any)
	if !ok || len(wrapped) != 2 {
		t.Errorf("Wrapped = %v, want 2-element list", m["Wrapped"])
	}
	flat, ok := m["Flat"].([]any)
	if !ok || len(flat) != 2 {
		t.Errorf("Flat = %v, want 2-element list", m["Flat"])
	}
	tags, ok := m["Tags"].(map[string]any)
	if !ok || tags["env"] != "prod" {
		t.Errorf("Tags = %v, want {env: prod}", m["Tags"])
	}
}

func TestMarshalXMLFlattenedListHasNoWrapperElement(t *testing.T) {
	svc := xmlTestService()
	data, err := marshalXML(svc, "Widget", "Widget", map[string]any{
		"Flat": []any{"x", "y"},
	})
	if err != nil {
		t.Fatalf("marshalXML: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "<Flat>") {
		t.Errorf("xml = %q, flattened list must not wrap in a <Flat> element", s)
	}
	if strings.Count(s, "<Item>") != 2 {
		t.Errorf("xml = %q, want exactly 2 <Item> elements", s)
	}
}
