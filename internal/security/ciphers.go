package security

import (
	"crypto/tls"
	"fmt"
	"strings"
)

// ParseCipherList translates an OpenSSL-style cipher list string into the
// cipher suite IDs crypto/tls understands. Supported syntax is a colon (or
// comma) separated sequence of:
//
//   - the keywords DEFAULT, ALL or HIGH, which select every suite the Go
//     TLS stack considers secure
//   - exact IANA suite names (for example TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256)
//   - exclusions of the form !TOKEN, removing every selected suite whose
//     underscore-separated name contains TOKEN as a whole component (so
//     !SHA strips the SHA-1 suites but keeps AES_128_GCM_SHA256)
//
// OpenSSL classes Go has no equivalent for (aNULL, eNULL, EXPORT, MD5) are
// accepted as exclusions and are no-ops, since Go ships no such suites.
//
// An empty list returns nil, meaning library defaults. The returned list
// only constrains TLS 1.2 and below; TLS 1.3 suites are not configurable
// in crypto/tls.
func ParseCipherList(list string) ([]uint16, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	known := make(map[string]uint16)
	for _, suite := range tls.CipherSuites() {
		known[suite.Name] = suite.ID
	}
	insecure := make(map[string]uint16)
	for _, suite := range tls.InsecureCipherSuites() {
		insecure[suite.Name] = suite.ID
	}

	var selected []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			selected = append(selected, name)
		}
	}

	var exclusions []string

	tokens := strings.FieldsFunc(list, func(r rune) bool {
		return r == ':' || r == ',' || r == ' '
	})
	for _, token := range tokens {
		if strings.HasPrefix(token, "!") {
			exclusions = append(exclusions, strings.TrimPrefix(token, "!"))
			continue
		}

		switch strings.ToUpper(token) {
		case "DEFAULT", "ALL", "HIGH":
			for _, suite := range tls.CipherSuites() {
				add(suite.Name)
			}
		default:
			if _, ok := known[token]; ok {
				add(token)
			} else if _, ok := insecure[token]; ok {
				// Explicitly named insecure suites are honored: the policy
				// string is applied verbatim, and the operator asked for it.
				add(token)
			}
			// Unknown tokens are skipped, matching OpenSSL's tolerance for
			// classes the linked library does not provide.
		}
	}

	var ids []uint16
	for _, name := range selected {
		if excluded(name, exclusions) {
			continue
		}
		if id, ok := known[name]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, insecure[name])
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("cipher list %q selects no usable cipher suites", list)
	}

	return ids, nil
}

// excluded matches exclusion tokens against the underscore-separated
// components of an IANA suite name. Component matching keeps !SHA from
// also swallowing SHA256 and SHA384 suites.
func excluded(name string, exclusions []string) bool {
	parts := strings.Split(name, "_")
	for _, ex := range exclusions {
		if ex == "" {
			continue
		}
		ex = strings.ToUpper(ex)
		for _, part := range parts {
			if part == ex {
				return true
			}
		}
	}
	return false
}
