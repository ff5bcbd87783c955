//go:build ignore

package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
)

// Standalone checker for OpenSSL-style cipher list strings as accepted by
// the websocket_cipher_list setting. Prints the TLS 1.2 suites the string
// resolves to so a list can be sanity-checked before it lands in the
// configuration file.
// Run directly with: go run tools/check-ciphers.go "HIGH:!aNULL:!eNULL:!MD5:!3DES"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: check-ciphers <cipher-list>")
		fmt.Println(`Example: check-ciphers "HIGH:!aNULL:!eNULL:!MD5:!3DES"`)
		os.Exit(1)
	}

	list := os.Args[1]
	fmt.Printf("=== Cipher List Checker ===\n")
	fmt.Printf("Input: %s\n\n", list)

	tokens := strings.FieldsFunc(list, func(r rune) bool {
		return r == ':' || r == ',' || r == ' '
	})

	var keep []*tls.CipherSuite
	var exclusions []string

	for _, token := range tokens {
		if strings.HasPrefix(token, "!") {
			exclusions = append(exclusions, strings.TrimPrefix(token, "!"))
			continue
		}

		switch token {
		case "DEFAULT", "ALL", "HIGH":
			keep = appendSuites(keep, tls.CipherSuites())
		default:
			matched := false
			for _, suite := range tls.CipherSuites() {
				if suite.Name == token {
					keep = appendSuites(keep, []*tls.CipherSuite{suite})
					matched = true
				}
			}
			for _, suite := range tls.InsecureCipherSuites() {
				if suite.Name == token {
					keep = appendSuites(keep, []*tls.CipherSuite{suite})
					matched = true
					fmt.Printf("Warning: %s is an insecure suite\n", token)
				}
			}
			if !matched {
				fmt.Printf("Warning: unrecognized token %q (ignored)\n", token)
			}
		}
	}

	var resolved []*tls.CipherSuite
	for _, suite := range keep {
		excluded := false
		parts := strings.Split(suite.Name, "_")
		for _, excl := range exclusions {
			excl = strings.ToUpper(excl)
			for _, part := range parts {
				if part == excl {
					excluded = true
					break
				}
			}
			if excluded {
				break
			}
		}
		if !excluded {
			resolved = append(resolved, suite)
		}
	}

	fmt.Printf("\nResolved %d suite(s):\n", len(resolved))
	for _, suite := range resolved {
		fmt.Printf("  %s\n", suite.Name)
	}

	if len(resolved) == 0 {
		fmt.Println("\nError: the list excludes every usable suite; the server would reject it")
		os.Exit(1)
	}
}

func appendSuites(dst []*tls.CipherSuite, src []*tls.CipherSuite) []*tls.CipherSuite {
	for _, suite := range src {
		dup := false
		for _, existing := range dst {
			if existing.ID == suite.ID {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, suite)
		}
	}
	return dst
}
