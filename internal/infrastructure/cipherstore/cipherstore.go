// Package cipherstore encrypts file payloads before they reach the blob backend
// and decrypts them on the way out.
//
// Blob layout:
//
//	header: "SSE1" | flags(1) | chunk size(4, BE) | nonce prefix(16)
//	body:   sealed chunk 0 | sealed chunk 1 | ... | sealed final chunk
//
// Every chunk is sealed with XChaCha20-Poly1305 under the file key. The nonce is
// the prefix followed by the big-endian chunk index, and the associated data is the
// header plus a final-chunk marker, so wrong keys, bit flips, reordering and
// truncation all fail authentication.
package cipherstore

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/sync/semaphore"

	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/infrastructure/keys"
	"secure-share-api/internal/infrastructure/storage"
)

const (
	magic          = "SSE1"
	noncePrefixLen = chacha20poly1305.NonceSizeX - 8
	headerLen      = len(magic) + 1 + 4 + noncePrefixLen

	flagZstd byte = 1 << 0
	// zstd frame, block headers and checksum on top of incompressible input
	zstdSlack  = 1 << 10
	zstdWindow = 8 << 20

	DefaultChunkSize = 64 << 10
	minChunkSize     = 1 << 10
	maxChunkSize     = 16 << 20
)

type Backend interface {
	Create(handle string) (storage.ObjectWriter, error)
	Open(handle string) (io.ReadCloser, error)
	Remove(handle string) error
}

type Options struct {
	// Workers bounds concurrent encrypt/decrypt jobs.
	Workers   int
	ChunkSize int
	Compress  bool
	// MaxPlaintext caps the decrypted, decompressed output.
	MaxPlaintext int64
	// Duration is optional; labelled by "op".
	Duration *prometheus.HistogramVec
}

type Store struct {
	backend  Backend
	logger   *zap.Logger
	sem      *semaphore.Weighted
	opts     Options
	now      func() time.Time
	window   int
	zstdDec  *zstd.Decoder
	duration *prometheus.HistogramVec
}

func New(backend Backend, logger *zap.Logger, opts Options) (*Store, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkSize < minChunkSize || opts.ChunkSize > maxChunkSize {
		return nil, fmt.Errorf("chunk size %d out of range", opts.ChunkSize)
	}
	if opts.MaxPlaintext <= 0 {
		opts.MaxPlaintext = 1 << 30
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(opts.MaxPlaintext)), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &Store{
		backend:  backend,
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(opts.Workers)),
		opts:     opts,
		now:      time.Now,
		window:   encoderWindow(opts.MaxPlaintext),
		zstdDec:  dec,
		duration: opts.Duration,
	}, nil
}

// EncryptAndStore streams r through the cipher into a freshly named blob and
// returns its handle and the plaintext size. Nothing is visible in the backend
// unless the whole payload was written.
func (s *Store) EncryptAndStore(ctx context.Context, r io.Reader, key keys.Key, originalName string) (Handle, int64, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Handle{}, 0, err
	}
	defer s.sem.Release(1)
	defer s.observe("encrypt", time.Now())

	h, err := newHandle(originalName, s.now())
	if err != nil {
		return Handle{}, 0, err
	}

	w, err := s.backend.Create(h.StoragePath)
	if err != nil {
		return Handle{}, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			w.Discard()
		}
	}()

	var flags byte
	if s.opts.Compress {
		flags |= flagZstd
	}
	sw, err := newSealWriter(w, key, flags, s.opts.ChunkSize)
	if err != nil {
		return Handle{}, 0, err
	}

	var dst io.WriteCloser = sw
	var enc *zstd.Encoder
	if s.opts.Compress {
		enc, err = zstd.NewWriter(sw,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithWindowSize(s.window),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return Handle{}, 0, fmt.Errorf("zstd encoder: %w", err)
		}
		dst = enc
	}

	n, err := io.Copy(dst, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return Handle{}, 0, fmt.Errorf("encrypt payload: %w", err)
	}
	if enc != nil {
		if err = enc.Close(); err != nil {
			return Handle{}, 0, fmt.Errorf("zstd close: %w", err)
		}
	}
	if err = sw.Close(); err != nil {
		return Handle{}, 0, fmt.Errorf("seal final chunk: %w", err)
	}
	if err = w.Commit(); err != nil {
		return Handle{}, 0, err
	}
	committed = true

	return h, n, nil
}

// LoadAndDecrypt returns the whole plaintext only after every chunk authenticated.
func (s *Store) LoadAndDecrypt(ctx context.Context, storagePath string, key keys.Key) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)
	defer s.observe("decrypt", time.Now())

	rc, err := s.backend.Open(storagePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	flags, plain, err := openAll(bufio.NewReader(&ctxReader{ctx: ctx, r: rc}), key, s.opts.MaxPlaintext)
	if err != nil {
		return nil, err
	}
	if flags&flagZstd == 0 {
		return plain, nil
	}

	out, err := s.zstdDec.DecodeAll(plain, nil)
	switch {
	case errors.Is(err, zstd.ErrDecoderSizeExceeded), errors.Is(err, zstd.ErrWindowSizeExceeded):
		return nil, errPlaintextLimit
	case err != nil:
		return nil, fmt.Errorf("%w: decompress: %v", errs.ErrStorage, err)
	case int64(len(out)) > s.opts.MaxPlaintext:
		return nil, errPlaintextLimit
	}

	return out, nil
}

var errPlaintextLimit = fmt.Errorf("%w: plaintext exceeds limit", errs.ErrStorage)

// encoderWindow is the largest power of two the decoder accepts for maxPlaintext.
func encoderWindow(maxPlaintext int64) int {
	w := zstdWindow
	for w > zstd.MinWindowSize && int64(w) > maxPlaintext {
		w >>= 1
	}
	return w
}

// sealedLimit bounds the authenticated stream before decompression.
func sealedLimit(flags byte, maxPlaintext int64) int64 {
	if flags&flagZstd == 0 {
		return maxPlaintext
	}
	return maxPlaintext + maxPlaintext>>8 + zstdSlack
}

// Delete is delete-if-exists: a blob that is already gone counts as deleted.
func (s *Store) Delete(_ context.Context, storagePath string) error {
	err := s.backend.Remove(storagePath)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("blob already absent", zap.String("storage_path", storagePath))
		return nil
	}
	return err
}

func (s *Store) observe(op string, start time.Time) {
	if s.duration != nil {
		s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

type sealWriter struct {
	w    io.Writer
	aead interface {
		Seal(dst, nonce, plaintext, ad []byte) []byte
	}
	header []byte
	prefix []byte
	buf    []byte
	out    []byte
	chunk  int
	index  uint64
	closed bool
}

func newSealWriter(w io.Writer, key keys.Key, flags byte, chunkSize int) (*sealWriter, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}

	header := make([]byte, headerLen)
	copy(header, magic)
	header[len(magic)] = flags
	binary.BigEndian.PutUint32(header[len(magic)+1:], uint32(chunkSize))
	prefix := header[len(magic)+5:]
	if _, err = io.ReadFull(rand.Reader, prefix); err != nil {
		return nil, err
	}
	if _, err = w.Write(header); err != nil {
		return nil, err
	}

	return &sealWriter{
		w:      w,
		aead:   aead,
		header: header,
		prefix: prefix,
		buf:    make([]byte, 0, chunkSize),
		out:    make([]byte, 0, chunkSize+chacha20poly1305.Overhead),
		chunk:  chunkSize,
	}, nil
}

func (sw *sealWriter) Write(p []byte) (int, error) {
	if sw.closed {
		return 0, errors.New("write after close")
	}
	written := 0
	for len(p) > 0 {
		// a full buffer is sealed as non-final only once more data shows up
		if len(sw.buf) == sw.chunk {
			if err := sw.flush(false); err != nil {
				return written, err
			}
		}
		n := copy(sw.buf[len(sw.buf):sw.chunk], p)
		sw.buf = sw.buf[:len(sw.buf)+n]
		p = p[n:]
		written += n
	}
	return written, nil
}

func (sw *sealWriter) Close() error {
	if sw.closed {
		return nil
	}
	sw.closed = true
	return sw.flush(true)
}

func (sw *sealWriter) flush(final bool) error {
	nonce := chunkNonce(sw.prefix, sw.index)
	sw.out = sw.aead.Seal(sw.out[:0], nonce, sw.buf, chunkAD(sw.header, final))
	if _, err := sw.w.Write(sw.out); err != nil {
		return err
	}
	sw.buf = sw.buf[:0]
	sw.index++
	return nil
}

func openAll(r *bufio.Reader, key keys.Key, maxPlaintext int64) (byte, []byte, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("%w: short header", errs.ErrKeyMismatch)
	}
	if string(header[:len(magic)]) != magic {
		return 0, nil, fmt.Errorf("%w: bad magic", errs.ErrKeyMismatch)
	}
	flags := header[len(magic)]
	chunkSize := int(binary.BigEndian.Uint32(header[len(magic)+1:]))
	if chunkSize < minChunkSize || chunkSize > maxChunkSize {
		return 0, nil, fmt.Errorf("%w: bad chunk size", errs.ErrKeyMismatch)
	}
	prefix := header[len(magic)+5:]
	maxOut := sealedLimit(flags, maxPlaintext)

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return 0, nil, err
	}

	var out bytes.Buffer
	sealed := make([]byte, chunkSize+aead.Overhead())
	for index := uint64(0); ; index++ {
		n, rerr := io.ReadFull(r, sealed)
		final := false
		switch {
		case rerr == nil:
			if _, perr := r.Peek(1); perr == io.EOF {
				final = true
			} else if perr != nil {
				return 0, nil, fmt.Errorf("%w: read: %v", errs.ErrStorage, perr)
			}
		case errors.Is(rerr, io.ErrUnexpectedEOF):
			final = true
		case errors.Is(rerr, io.EOF):
			// ran out before a final chunk
			return 0, nil, fmt.Errorf("%w: truncated blob", errs.ErrKeyMismatch)
		default:
			return 0, nil, fmt.Errorf("%w: read: %v", errs.ErrStorage, rerr)
		}

		plain, oerr := aead.Open(sealed[:0:0], chunkNonce(prefix, index), sealed[:n], chunkAD(header, final))
		if oerr != nil {
			return 0, nil, fmt.Errorf("%w: chunk %d failed authentication", errs.ErrKeyMismatch, index)
		}
		if int64(out.Len()+len(plain)) > maxOut {
			return 0, nil, errPlaintextLimit
		}
		out.Write(plain)

		if final {
			return flags, out.Bytes(), nil
		}
	}
}

func chunkNonce(prefix []byte, index uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	copy(nonce, prefix)
	binary.BigEndian.PutUint64(nonce[noncePrefixLen:], index)
	return nonce
}

func chunkAD(header []byte, final bool) []byte {
	ad := make([]byte, len(header)+1)
	copy(ad, header)
	if final {
		ad[len(header)] = 1
	}
	return ad
}

// ctxReader stops long copies once the request is gone.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
