package aptindex

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// parseStanza parses a Debian control-style package stanza as served by the
// index metadata endpoint. Expected fields: Package, Version, Depends
// (optional), Filename, SHA256, Size (optional).
func parseStanza(data []byte) (*PackageRecord, error) {
	rec := &PackageRecord{}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed stanza line %q", line)
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Package":
			rec.Name = value
		case "Version":
			rec.Version = value
		case "Depends":
			rec.Depends = parseDepends(value)
		case "Filename":
			rec.Filename = value
		case "SHA256":
			rec.Checksum = "sha256:" + value
		case "Size":
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed Size field %q: %w", value, err)
			}
			rec.Size = size
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan stanza: %w", err)
	}
	if rec.Name == "" || rec.Version == "" || rec.Filename == "" || rec.Checksum == "sha256:" || rec.Checksum == "" {
		return nil, fmt.Errorf("stanza missing required fields (Package/Version/Filename/SHA256)")
	}
	return rec, nil
}

// parseDepends splits a Depends field into bare dependency names, preserving
// the declared order. Version constraints like "(>= 2.39)" are stripped (the
// index yields one canonical version per name at a given snapshot), the first
// alternative of "a | b" groups is taken, and architecture qualifiers
// ("pkg:any") are normalized to the bare name.
func parseDepends(value string) []string {
	var names []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		// First alternative wins, matching what apt-cache reports for a
		// fixed index.
		if alt, _, found := strings.Cut(entry, "|"); found {
			entry = strings.TrimSpace(alt)
		}
		if name, _, found := strings.Cut(entry, "("); found {
			entry = strings.TrimSpace(name)
		}
		if name, _, found := strings.Cut(entry, ":"); found {
			entry = strings.TrimSpace(name)
		}
		if entry != "" {
			names = append(names, entry)
		}
	}
	return names
}
