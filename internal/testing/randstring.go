package testing

import (
	"math/rand"
	"strings"
)

const charSet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandString generates random string of n symbols from lower- and uppercase alphabet
func RandString(n int) string {
	var out strings.Builder
	out.Grow(n)
	for i := 0; i < n; i++ {
		out.WriteByte(charSet[rand.Intn(len(charSet))])
	}
	return out.String()
}

// RandEmail generates random lowercase address in example.com domain
func RandEmail() string {
	return strings.ToLower(RandString(10)) + "@example.com"
}
