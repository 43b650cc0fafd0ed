// Package main generates a sample service descriptor JSON document for
// exercising the engine against a made-up service without hand-writing
// a descriptor file, the same role the teacher's data generator played
// for populating a DynamoDB table with random items instead of a
// hand-entered fixture.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	json "github.com/goccy/go-json"

	"github.com/gurre/awsapi/descriptor"
)

// Config holds the command-line configuration for the descriptor
// generator.
type Config struct {
	ServiceID string
	Protocol  string
	NumOps    int
	Seed      int64
	OutPath   string
}

func randomString(r *rand.Rand, n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return string(b)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// generateService builds a *descriptor.Service with cfg.NumOps random
// CRUD-shaped operations, each taking one required string input member
// and returning one string output member.
func generateService(cfg Config, r *rand.Rand) *descriptor.Service {
	svc := &descriptor.Service{
		Metadata: descriptor.Metadata{
			Protocol:         cfg.Protocol,
			SignatureVersion: "v4",
			EndpointPrefix:   toLower(cfg.ServiceID),
			APIVersion:       "2024-01-01",
			ServiceID:        cfg.ServiceID,
			ServiceFullName:  fmt.Sprintf("Sample %s Service", cfg.ServiceID),
		},
		Operations: map[string]descriptor.Operation{},
		Shapes:     map[string]descriptor.Shape{"String": {Type: descriptor.TypeString}},
	}

	for i := 0; i < cfg.NumOps; i++ {
		name := "Op" + capitalize(randomString(r, 8))
		inputShape := name + "Input"
		outputShape := name + "Output"
		idMember := "Id"

		svc.Operations[name] = descriptor.Operation{
			Name:          name,
			HTTP:          httpBindingFor(cfg.Protocol, name),
			InputShape:    inputShape,
			OutputShape:   outputShape,
			RequiredInput: []string{idMember},
			Documentation: fmt.Sprintf("%s is a generated sample operation.", name),
		}
		svc.Shapes[inputShape] = descriptor.Shape{
			Type: descriptor.TypeStructure,
			Members: map[string]descriptor.Member{
				idMember: {ShapeName: "String", Location: locationFor(cfg.Protocol), LocationName: idMember},
			},
			Required: []string{idMember},
		}
		svc.Shapes[outputShape] = descriptor.Shape{
			Type:    descriptor.TypeStructure,
			Members: map[string]descriptor.Member{"Name": {ShapeName: "String"}},
		}
	}
	return svc
}

func httpBindingFor(protocol, opName string) descriptor.OperationHTTP {
	switch protocol {
	case "rest-json", "rest-xml":
		return descriptor.OperationHTTP{Method: "GET", RequestURI: "/" + toLower(opName) + "/{Id}"}
	default:
		return descriptor.OperationHTTP{Method: "POST", RequestURI: "/"}
	}
}

func locationFor(protocol string) descriptor.Location {
	switch protocol {
	case "rest-json", "rest-xml":
		return descriptor.LocationURI
	default:
		return ""
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func run() error {
	fs := flag.NewFlagSet("gendescriptor", flag.ExitOnError)

	serviceID := fs.String("service", "SampleWidgets", "service id for the generated descriptor")
	protocol := fs.String("protocol", "rest-json", "wire protocol: json|rest-json|rest-xml|query|ec2")
	numOps := fs.Int("ops", 3, "number of operations to generate")
	seed := fs.Int64("seed", 1, "random seed")
	outPath := fs.String("out", "", "output file path (defaults to stdout)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg := Config{
		ServiceID: *serviceID,
		Protocol:  *protocol,
		NumOps:    *numOps,
		Seed:      *seed,
		OutPath:   *outPath,
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	svc := generateService(cfg, r)

	var out *os.File
	if cfg.OutPath == "" {
		out = os.Stdout
	} else {
		f, err := os.Create(cfg.OutPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", cfg.OutPath, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(svc); err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("gendescriptor: %v", err)
	}
}
