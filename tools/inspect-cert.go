//go:build ignore

package main

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"time"
)

// Standalone inspector for combined PEM certificate files as written by
// the server (certificate blocks followed by the private key block).
// Run directly with: go run tools/inspect-cert.go <pem-file>

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: inspect-cert <pem-file>")
		fmt.Println("Example: inspect-cert ~/.config/picoremote/picoremote.pem")
		os.Exit(1)
	}

	filename := os.Args[1]
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Certificate Inspector ===\n")
	fmt.Printf("File: %s\n\n", filename)

	certCount := 0
	keyCount := 0

	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}

		switch {
		case block.Type == "CERTIFICATE":
			certCount++
			printCertificate(certCount, block.Bytes)
		case block.Type == "PRIVATE KEY" || block.Type == "RSA PRIVATE KEY" || block.Type == "EC PRIVATE KEY":
			keyCount++
			encrypted := len(block.Headers) > 0
			fmt.Printf("Private key block: %s (encrypted: %v)\n\n", block.Type, encrypted)
		default:
			fmt.Printf("Skipping PEM block of type %q\n\n", block.Type)
		}
	}

	if certCount == 0 {
		fmt.Println("No certificate blocks found")
		os.Exit(1)
	}
	if keyCount == 0 {
		fmt.Println("Warning: no private key block found; file is not usable by the server")
	}
}

func printCertificate(index int, der []byte) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		fmt.Printf("Certificate #%d: parse error: %v\n\n", index, err)
		return
	}

	sum := sha256.Sum256(der)

	fmt.Printf("Certificate #%d\n", index)
	fmt.Printf("  Subject:      %s\n", cert.Subject)
	fmt.Printf("  Issuer:       %s\n", cert.Issuer)
	fmt.Printf("  Serial:       %s\n", cert.SerialNumber)
	fmt.Printf("  Not before:   %s\n", cert.NotBefore.Format(time.RFC3339))
	fmt.Printf("  Not after:    %s\n", cert.NotAfter.Format(time.RFC3339))
	if time.Now().After(cert.NotAfter) {
		fmt.Printf("  *** EXPIRED ***\n")
	}
	if len(cert.DNSNames) > 0 {
		fmt.Printf("  DNS names:    %v\n", cert.DNSNames)
	}
	if len(cert.IPAddresses) > 0 {
		fmt.Printf("  IP addresses: %v\n", cert.IPAddresses)
	}
	fmt.Printf("  Self-signed:  %v\n", cert.Subject.String() == cert.Issuer.String())
	fmt.Printf("  Fingerprint:  %s\n\n", hex.EncodeToString(sum[:]))
}
