package ports

import (
	"context"
	"io"

	"secure-share-api/internal/infrastructure/cipherstore"
	"secure-share-api/internal/infrastructure/keys"
)

type KeyManager interface {
	GenerateFileKey() keys.Key
	Wrap(key keys.Key) (string, error)
	Unwrap(wrapped string) (keys.Key, error)
}

type CipherStore interface {
	EncryptAndStore(ctx context.Context, r io.Reader, key keys.Key, originalName string) (cipherstore.Handle, int64, error)
	LoadAndDecrypt(ctx context.Context, storagePath string, key keys.Key) ([]byte, error)
	Delete(ctx context.Context, storagePath string) error
}

type QREncoder interface {
	Encode(content string) ([]byte, error)
}
