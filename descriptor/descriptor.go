// Package descriptor loads and represents the machine-readable service
// descriptor that drives the generic client engine: the operation list,
// input/output shapes, wire protocol family, endpoint metadata, and
// signature version for one AWS service. A descriptor is immutable once
// loaded and is safe to share across every client handle bound to that
// service.
//
// This package plays the role the teacher's manifest loader played for a
// DynamoDB PITR export: Load reads a JSON document from an fs.FS and
// decodes it into a typed in-memory value that the rest of the engine
// treats as read-only.
package descriptor

import (
	"fmt"
	"io/fs"

	json "github.com/goccy/go-json"
)

// Location names where a structure member's value is carried on the wire.
type Location string

const (
	LocationURI        Location = "uri"
	LocationQuerystring Location = "querystring"
	LocationHeader      Location = "header"
	LocationHeaders      Location = "headers"
	LocationStatusCode   Location = "statusCode"
	LocationPayload      Location = "payload"
)

// ShapeType enumerates the wire types a Shape can describe.
type ShapeType string

const (
	TypeStructure ShapeType = "structure"
	TypeList      ShapeType = "list"
	TypeMap       ShapeType = "map"
	TypeString    ShapeType = "string"
	TypeInteger   ShapeType = "integer"
	TypeLong      ShapeType = "long"
	TypeDouble    ShapeType = "double"
	TypeFloat     ShapeType = "float"
	TypeBoolean   ShapeType = "boolean"
	TypeTimestamp ShapeType = "timestamp"
	TypeBlob      ShapeType = "blob"
	TypeNull      ShapeType = "null"
)

// Member describes one field of a structure shape.
type Member struct {
	ShapeName    string   `json:"shape"`
	Location     Location `json:"location,omitempty"`
	LocationName string   `json:"locationName,omitempty"`
}

// Shape is a tagged description of a value used in an operation's input,
// output, or errors. Only the fields relevant to Type are populated; the
// rest are zero.
type Shape struct {
	Type ShapeType `json:"type"`

	// structure
	Members  map[string]Member `json:"members,omitempty"`
	Required []string          `json:"required,omitempty"`
	Payload  string            `json:"payload,omitempty"`

	// list
	Member    *Member `json:"member,omitempty"`
	Flattened bool    `json:"flattened,omitempty"`

	// map
	Key   *Member `json:"key,omitempty"`
	Value *Member `json:"value,omitempty"`

	// string
	Enum    []string `json:"enum,omitempty"`
	Pattern string   `json:"pattern,omitempty"`

	// timestamp
	TimestampFormat string `json:"timestampFormat,omitempty"`
}

// OperationHTTP carries the HTTP verb and path template bound to an
// operation by the rest-json/rest-xml protocol families.
type OperationHTTP struct {
	Method       string `json:"method"`
	RequestURI   string `json:"requestUri"`
	ResponseCode int    `json:"responseCode,omitempty"`
}

// Operation describes one named RPC exposed by a service.
type Operation struct {
	Name          string        `json:"name"`
	HTTP          OperationHTTP `json:"http"`
	InputShape    string        `json:"input,omitempty"`
	OutputShape   string        `json:"output,omitempty"`
	ErrorShapes   []string      `json:"errors,omitempty"`
	RequiredInput []string      `json:"requiredInput,omitempty"`
	Documentation string        `json:"documentation,omitempty"`
}

// Metadata carries the service-wide constants the protocol and signer
// layers need: protocol family, signature version, endpoint prefix,
// signing name, JSON RPC target prefix/version, API version, service id.
type Metadata struct {
	Protocol         string `json:"protocol"`
	SignatureVersion string `json:"signatureVersion"`
	EndpointPrefix   string `json:"endpointPrefix"`
	SigningName      string `json:"signingName,omitempty"`
	TargetPrefix     string `json:"targetPrefix,omitempty"`
	JSONVersion      string `json:"jsonVersion,omitempty"`
	APIVersion       string `json:"apiVersion"`
	ServiceID        string `json:"serviceId"`
	ServiceFullName  string `json:"serviceFullName,omitempty"`
}

// SigningNameOrPrefix returns the name used in the SigV4 credential
// scope: metadata.signingName when present, else the endpoint prefix.
func (m Metadata) SigningNameOrPrefix() string {
	if m.SigningName != "" {
		return m.SigningName
	}
	return m.EndpointPrefix
}

// Service is the immutable, per-service descriptor. It is never mutated
// after Load returns; Operations is the sole authority on which
// operation names are valid for InvokeAsync/Invoke.
type Service struct {
	Metadata   Metadata             `json:"metadata"`
	Operations map[string]Operation `json:"operations"`
	Shapes     map[string]Shape     `json:"shapes"`
}

// Shape looks up a shape by name, returning ok=false if the descriptor
// does not define it.
func (s *Service) Shape(name string) (Shape, bool) {
	sh, ok := s.Shapes[name]
	return sh, ok
}

// Load reads "<serviceID>.json" from fsys and decodes it into a Service.
// This is the default, mechanical implementation of the descriptor-loader
// collaborator; callers may use embed.FS, os.DirFS, or fstest.MapFS.
func Load(fsys fs.FS, serviceID string) (*Service, error) {
	f, err := fsys.Open(serviceID + ".json")
	if err != nil {
		return nil, fmt.Errorf("descriptor: open %s: %w", serviceID, err)
	}
	defer f.Close()

	var svc Service
	if err := json.NewDecoder(f).Decode(&svc); err != nil {
		return nil, fmt.Errorf("descriptor: decode %s: %w", serviceID, err)
	}
	if svc.Operations == nil {
		svc.Operations = map[string]Operation{}
	}
	if svc.Shapes == nil {
		svc.Shapes = map[string]Shape{}
	}
	return &svc, nil
}
