// Package ident generates human-readable record numbers such as
// hospital numbers and invoice numbers.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Code returns prefix followed by n upper-case hexadecimal characters.
func Code(prefix string, n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return prefix + strings.ToUpper(hex.EncodeToString(buf))[:n]
}
