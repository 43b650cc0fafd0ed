// Package iniconfig parses the shared AWS config/credentials file format:
// bracketed profiles ([default] / [profile name]) with flat key = value
// pairs and nested s3-style subsections written as an indented block under
// a key whose own value is empty. Keys are case-sensitive; values are
// trimmed.
package iniconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Profile is one bracketed section's key/value pairs. Nested subsections
// are flattened into "parent.child" keys.
type Profile map[string]string

// File is a parsed shared-config document, keyed by bare profile name
// ("default", or the name following "profile " in credentials files the
// AWS CLI also reads without that prefix).
type File struct {
	Profiles map[string]Profile
}

// Profile returns the named profile, or ok=false if it is not present.
func (f *File) Profile(name string) (Profile, bool) {
	p, ok := f.Profiles[name]
	return p, ok
}

// Load reads and parses path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("iniconfig: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the bracketed-profile INI format from r.
func Parse(r io.Reader) (*File, error) {
	doc := &File{Profiles: map[string]Profile{}}
	scanner := bufio.NewScanner(r)

	var current Profile
	var lastKey string

	for scanner.Scan() {
		raw := scanner.Text()
		line := stripComment(raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		indented := len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
		if indented && current != nil && lastKey != "" {
			k, v, ok := splitKV(trimmed)
			if ok {
				current[lastKey+"."+k] = v
			}
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			name = strings.TrimPrefix(name, "profile ")
			name = strings.TrimSpace(name)
			current = Profile{}
			doc.Profiles[name] = current
			lastKey = ""
			continue
		}

		if current == nil {
			continue // stray key before any section header; ignore
		}
		k, v, ok := splitKV(trimmed)
		if !ok {
			continue
		}
		current[k] = v
		lastKey = k
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("iniconfig: scan: %w", err)
	}
	return doc, nil
}

func splitKV(s string) (key, value string, ok bool) {
	idx := strings.Index(s, "=")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}

func stripComment(s string) string {
	for _, marker := range []string{" #", " ;"} {
		if idx := strings.Index(s, marker); idx >= 0 {
			return s[:idx]
		}
	}
	if strings.HasPrefix(strings.TrimSpace(s), "#") || strings.HasPrefix(strings.TrimSpace(s), ";") {
		return ""
	}
	return s
}
