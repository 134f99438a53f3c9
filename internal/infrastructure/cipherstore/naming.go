package cipherstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxExtLen    = 10
	randomSuffix = 5 // bytes, 10 hex chars
	fallbackExt  = ".bin"
)

var extRe = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// Handle locates a stored ciphertext. StorageName is globally unique; StoragePath
// is the backend handle and is never derived from caller input beyond the
// sanitised extension.
type Handle struct {
	StorageName string
	StoragePath string
}

// newHandle: "YYYY/MM/DD/<unix-nano>-<10 hex><.ext>"
func newHandle(originalName string, now time.Time) (Handle, error) {
	var rnd [randomSuffix]byte
	if _, err := rand.Read(rnd[:]); err != nil {
		return Handle{}, fmt.Errorf("storage name entropy: %w", err)
	}

	now = now.UTC()
	name := fmt.Sprintf("%d-%s%s", now.UnixNano(), hex.EncodeToString(rnd[:]), safeExt(originalName))

	return Handle{
		StorageName: name,
		StoragePath: fmt.Sprintf("%04d/%02d/%02d/%s", now.Year(), int(now.Month()), now.Day(), name),
	}, nil
}

// safeExt keeps only a short ASCII extension of the client's file name.
func safeExt(originalName string) string {
	s := strings.TrimSpace(originalName)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)
	if s == "." || s == "/" || s == ".." {
		return fallbackExt
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	ext := strings.ToLower(path.Ext(s))
	if ext == s || !extRe.MatchString(ext) {
		return fallbackExt
	}

	return ext
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
