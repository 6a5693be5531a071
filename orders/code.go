package orders

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodePattern matches order codes, SP-XXXX-XXXX
var CodePattern = regexp.MustCompile(`^SP-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// CodeGenerator produces order codes
type CodeGenerator func() (string, error)

// RandomCode draws a code from crypto/rand
func RandomCode() (string, error) {
	return codeFrom(rand.Reader)
}

// codeFrom builds a code from r, rejecting bytes that would bias the alphabet
func codeFrom(r io.Reader) (string, error) {
	const limit = 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, 8)
	buf := make([]byte, 16)
	for len(out) < 8 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == 8 {
				break
			}
		}
	}
	return fmt.Sprintf("SP-%s-%s", out[:4], out[4:]), nil
}

// ValidCode reports whether s has the order code format
func ValidCode(s string) bool {
	return CodePattern.MatchString(s)
}
