package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewPrefixedID generates a short public identifier with a type prefix,
// e.g. "conv-x3f9k2m1p7q4". Prefixed ids are used anywhere a human may
// see the id in logs or URLs.
func NewPrefixedID(prefix string) string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		// gonanoid only fails when the platform's entropy source does
		panic(err)
	}
	return prefix + "-" + id
}
