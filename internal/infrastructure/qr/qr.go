// Package qr renders share links as PNG QR codes. Rendered images are kept in a
// size- and time-bounded LRU so repeated dashboard loads do not re-encode.
package qr

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize      = 256
	DefaultCacheSize = 512
	DefaultCacheTTL  = 10 * time.Minute

	maxContentLen = 2048
)

var ErrEmptyContent = errors.New("qr content is empty")

type Encoder struct {
	size     int
	level    qrcode.RecoveryLevel
	cache    *expirable.LRU[string, []byte]
	encodeFn func(content string, level qrcode.RecoveryLevel, size int) ([]byte, error)
}

func New(cacheSize int, ttl time.Duration) *Encoder {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Encoder{
		size:     DefaultSize,
		level:    qrcode.Medium,
		cache:    expirable.NewLRU[string, []byte](cacheSize, nil, ttl),
		encodeFn: qrcode.Encode,
	}
}

// Encode returns a PNG. Callers must not modify the returned slice, it is shared
// with the cache.
func (e *Encoder) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > maxContentLen {
		return nil, fmt.Errorf("qr content too long: %d bytes", len(content))
	}

	if png, ok := e.cache.Get(content); ok {
		return png, nil
	}

	png, err := e.encodeFn(content, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	e.cache.Add(content, png)

	return png, nil
}

func (e *Encoder) Len() int { return e.cache.Len() }
