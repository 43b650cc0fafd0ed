// Package main implements a command-line client: load a service
// descriptor, invoke one operation against it with a JSON input
// document, and print the JSON result and trace — the generic
// counterpart to the teacher's table-restore CLI, which parsed flags,
// built one Config, and drove one Coordinator.Run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/gurre/awsapi/client"
	"github.com/gurre/awsapi/config"
	"github.com/gurre/awsapi/descriptor"
	"github.com/gurre/awsapi/endpoint"
	_ "github.com/gurre/awsapi/protocol"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("awsinvoke", flag.ExitOnError)

	descriptorPath := fs.String("descriptor", "", "path to the service descriptor JSON file")
	serviceID := fs.String("service", "", "service id to load from -descriptor-dir")
	descriptorDir := fs.String("descriptor-dir", ".", "directory to load -service's descriptor from, when -descriptor is unset")
	opName := fs.String("op", "", "operation name to invoke")
	inputJSON := fs.String("input", "{}", "JSON object of input member values")
	region := fs.String("region", "", "AWS region (defaults to the region provider chain)")
	endpointHostname := fs.String("endpoint", "", "endpoint hostname override")
	validate := fs.Bool("validate", true, "validate required input members before sending")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	svc, err := loadDescriptor(*descriptorPath, *descriptorDir, *serviceID)
	if err != nil {
		return err
	}
	if *opName == "" {
		return fmt.Errorf("-op is required")
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(*inputJSON), &input); err != nil {
		return fmt.Errorf("invalid -input JSON: %w", err)
	}

	cfg := &config.Config{
		Service:          svc,
		Region:           *region,
		ValidateRequests: *validate,
	}
	if *endpointHostname != "" {
		cfg.EndpointOverride = &endpoint.Override{Hostname: *endpointHostname}
	}

	c, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build client: %w", err)
	}
	defer c.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	res := c.Invoke(ctx, *opName, input)
	out := map[string]any{
		"trace": res.Trace.String(),
	}
	if res.Anomaly != nil {
		out["error"] = map[string]any{
			"category": res.Anomaly.Category,
			"message":  res.Anomaly.Error(),
		}
	} else {
		out["value"] = res.Value
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if res.Anomaly != nil {
		os.Exit(1)
	}
	return nil
}

func loadDescriptor(path, dir, serviceID string) (*descriptor.Service, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open descriptor: %w", err)
		}
		defer f.Close()
		var svc descriptor.Service
		if err := json.NewDecoder(f).Decode(&svc); err != nil {
			return nil, fmt.Errorf("failed to decode descriptor: %w", err)
		}
		return &svc, nil
	}
	if serviceID == "" {
		return nil, fmt.Errorf("one of -descriptor or -service is required")
	}
	svc, err := descriptor.Load(os.DirFS(dir), serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load descriptor %q from %q: %w", serviceID, dir, err)
	}
	return svc, nil
}
