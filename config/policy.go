package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UploadPolicy restricts what may be uploaded. Extensions are stored lowercase and
// without the leading dot.
type UploadPolicy struct {
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	BlockedExtensions []string `yaml:"blocked_extensions"`
}

func DefaultUploadPolicy(maxFileSize int64) UploadPolicy {
	return UploadPolicy{
		MaxFileSize:       maxFileSize,
		AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "pdf", "doc", "docx", "txt", "zip", "rar"},
	}
}

// LoadUploadPolicy reads the YAML policy at path. A missing file yields the default
// policy; an empty max_file_size inherits maxFileSize.
func LoadUploadPolicy(path string, maxFileSize int64) (UploadPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultUploadPolicy(maxFileSize), nil
		}
		return UploadPolicy{}, fmt.Errorf("failed to read upload policy: %w", err)
	}

	return ParseUploadPolicy(data, maxFileSize)
}

func ParseUploadPolicy(data []byte, maxFileSize int64) (UploadPolicy, error) {
	var p UploadPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return UploadPolicy{}, fmt.Errorf("failed to parse upload policy: %w", err)
	}
	if p.MaxFileSize <= 0 || p.MaxFileSize > maxFileSize {
		p.MaxFileSize = maxFileSize
	}
	p.AllowedExtensions = normalizeExts(p.AllowedExtensions)
	p.BlockedExtensions = normalizeExts(p.BlockedExtensions)

	return p, nil
}

// Allows reports whether ext (with or without dot) passes the policy. An empty
// allow list admits everything that is not blocked.
func (p UploadPolicy) Allows(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, b := range p.BlockedExtensions {
		if ext == b {
			return false
		}
	}
	if len(p.AllowedExtensions) == 0 {
		return true
	}
	for _, a := range p.AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func normalizeExts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
