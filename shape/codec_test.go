package shape

import (
	"testing"
	"time"

	"github.com/gurre/awsapi/descriptor"
)

func testService() *descriptor.Service {
	return &descriptor.Service{
		Shapes: map[string]descriptor.Shape{
			"String":  {Type: descriptor.TypeString},
			"Integer": {Type: descriptor.TypeInteger},
			"Bool":    {Type: descriptor.TypeBoolean},
			"Tags": {
				Type:  descriptor.TypeMap,
				Key:   &descriptor.Member{ShapeName: "String"},
				Value: &descriptor.Member{ShapeName: "String"},
			},
			"StringList": {
				Type:   descriptor.TypeList,
				Member: &descriptor.Member{ShapeName: "String"},
			},
			"Widget": {
				Type: descriptor.TypeStructure,
				Members: map[string]descriptor.Member{
					"Name":    {ShapeName: "String"},
					"Count":   {ShapeName: "Integer"},
					"Enabled": {ShapeName: "Bool"},
					"Tags":    {ShapeName: "Tags"},
					"Aliases": {ShapeName: "StringList", LocationName: "aliasList"},
				},
				Required: []string{"Name"},
			},
		},
	}
}

func TestEncodeLeafRoundTrip(t *testing.T) {
	cases := []struct {
		shape descriptor.Shape
		value any
	}{
		{descriptor.Shape{Type: descriptor.TypeString}, "hello"},
		{descriptor.Shape{Type: descriptor.TypeInteger}, int64(42)},
		{descriptor.Shape{Type: descriptor.TypeBoolean}, true},
		{descriptor.Shape{Type: descriptor.TypeBlob}, []byte("bytes")},
	}
	for _, c := range cases {
		s, err := EncodeLeaf(c.shape, c.value, ContextBody)
		if err != nil {
			t.Fatalf("EncodeLeaf(%v): %v", c.value, err)
		}
		got, err := DecodeLeaf(c.shape, s, ContextBody)
		if err != nil {
			t.Fatalf("DecodeLeaf(%v): %v", s, err)
		}
		if b, ok := c.value.([]byte); ok {
			if string(got.([]byte)) != string(b) {
				t.Errorf("round trip mismatch: got %v, want %v", got, c.value)
			}
			continue
		}
		if got != c.value {
			t.Errorf("round trip mismatch: got %v, want %v", got, c.value)
		}
	}
}

func TestBlobNeverBase64InHeaderOrURI(t *testing.T) {
	sh := descriptor.Shape{Type: descriptor.TypeBlob}
	raw := []byte("raw-bytes")
	for _, ctx := range []Context{ContextHeader, ContextURI, ContextQuery} {
		s, err := EncodeLeaf(sh, raw, ctx)
		if err != nil {
			t.Fatalf("EncodeLeaf: %v", err)
		}
		if s != string(raw) {
			t.Errorf("context %v: got %q, want raw %q (no base64)", ctx, s, raw)
		}
	}
	s, err := EncodeLeaf(sh, raw, ContextBody)
	if err != nil {
		t.Fatalf("EncodeLeaf: %v", err)
	}
	if s == string(raw) {
		t.Errorf("ContextBody should base64-encode, got raw bytes back")
	}
}

func TestTimestampFormats(t *testing.T) {
	ts := time.Date(2015, 1, 25, 8, 0, 0, 0, time.UTC)
	cases := []string{"iso8601", "rfc822", "unixTimestamp"}
	for _, format := range cases {
		sh := descriptor.Shape{Type: descriptor.TypeTimestamp, TimestampFormat: format}
		s, err := EncodeLeaf(sh, ts, ContextBody)
		if err != nil {
			t.Fatalf("format %s: encode: %v", format, err)
		}
		got, err := DecodeLeaf(sh, s, ContextBody)
		if err != nil {
			t.Fatalf("format %s: decode %q: %v", format, s, err)
		}
		gotTime := got.(time.Time)
		if !gotTime.Equal(ts) {
			t.Errorf("format %s: round trip got %v, want %v", format, gotTime, ts)
		}
	}
}

func TestToFromWireTreeStructure(t *testing.T) {
	svc := testService()
	value := map[string]any{
		"Name":    "widget-1",
		"Count":   int64(3),
		"Enabled": true,
		"Tags":    map[string]any{"env": "prod"},
		"Aliases": []any{"a", "b"},
	}

	wire, err := ToWireTree(svc, "Widget", value)
	if err != nil {
		t.Fatalf("ToWireTree: %v", err)
	}
	tree, ok := wire.(map[string]any)
	if !ok {
		t.Fatalf("wire tree is %T, want map[string]any", wire)
	}
	if _, ok := tree["aliasList"]; !ok {
		t.Errorf("expected locationName key %q in wire tree, got %v", "aliasList", tree)
	}

	back, err := FromWireTree(svc, "Widget", wire)
	if err != nil {
		t.Fatalf("FromWireTree: %v", err)
	}
	backMap := back.(map[string]any)
	if backMap["Name"] != "widget-1" {
		t.Errorf("Name = %v, want widget-1", backMap["Name"])
	}
	if backMap["Count"] != int64(3) {
		t.Errorf("Count = %v, want 3", backMap["Count"])
	}
	aliases, ok := backMap["Aliases"].([]any)
	if !ok || len(aliases) != 2 {
		t.Errorf("Aliases = %v, want 2-element list", backMap["Aliases"])
	}
}

func TestUnknownShapeIsCorrupt(t *testing.T) {
	svc := &descriptor.Service{Shapes: map[string]descriptor.Shape{}}
	if _, err := ToWireTree(svc, "Missing", map[string]any{}); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}
