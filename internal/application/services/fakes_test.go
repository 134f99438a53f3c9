package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secure-share-api/config"
	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/domain/errs"
	"secure-share-api/internal/domain/file"
	"secure-share-api/internal/domain/share"
	"secure-share-api/internal/domain/user"
	"secure-share-api/internal/infrastructure/cipherstore"
	"secure-share-api/internal/infrastructure/keys"
	"secure-share-api/internal/infrastructure/mq"
	"secure-share-api/internal/infrastructure/qr"
	"secure-share-api/internal/infrastructure/storage"
)

// memDB is an in-memory expiring store with the same visibility rules as the
// SQL repositories: nothing is readable from its expiry instant on.
type memDB struct {
	mu     sync.Mutex
	now    time.Time
	users  map[uuid.UUID]*user.User
	files  map[uuid.UUID]*file.File
	shares map[uuid.UUID]*share.Share
}

func newMemDB() *memDB {
	return &memDB{
		now:    time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		users:  map[uuid.UUID]*user.User{},
		files:  map[uuid.UUID]*file.File{},
		shares: map[uuid.UUID]*share.Share{},
	}
}

func (m *memDB) clock() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *memDB) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

type memUsers struct{ *memDB }

func (r memUsers) FetchUserByID(_ context.Context, id user.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r memUsers) FetchUserByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) CreateUser(_ context.Context, req user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == req.Email {
			return nil, errs.Validation("email", "already registered")
		}
	}
	req.UUID = uuid.New()
	req.CreatedAt = r.now
	r.users[req.UUID] = &req
	cp := req
	return &cp, nil
}

func (r memUsers) FetchUsers(_ context.Context, page int) (user.Users, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all user.Users
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })

	start := max(page-1, 0) * user.PageSize
	if start >= len(all) {
		return nil, nil
	}
	return all[start:min(start+user.PageSize, len(all))], nil
}

func (r memUsers) UpdateName(_ context.Context, id user.UUID, name string) (*user.User, error) {
	return r.update(id, func(u *user.User) { u.Name = name })
}

func (r memUsers) UpdatePasswordHash(_ context.Context, id user.UUID, hash string) (*user.User, error) {
	return r.update(id, func(u *user.User) { u.PasswordHash = hash })
}

func (r memUsers) update(id user.UUID, fn func(u *user.User)) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	fn(u)
	cp := *u
	return &cp, nil
}

type memFiles struct{ *memDB }

func (r memFiles) FetchFileByID(_ context.Context, id file.UUID) (*file.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[id]; ok && !f.IsExpired(r.now) {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (r memFiles) FetchOwnerFiles(_ context.Context, ownerID uuid.UUID) (file.Files, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out file.Files
	for _, f := range r.files {
		if f.OwnerID == ownerID && !f.IsExpired(r.now) {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memFiles) CreateFile(_ context.Context, req *file.File) (*file.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	cp.UUID = uuid.New()
	r.files[cp.UUID] = &cp
	out := cp
	return &out, nil
}

func (r memFiles) DeleteFile(_ context.Context, id file.UUID) (*file.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, nil
	}
	delete(r.files, id)
	for sid, s := range r.shares {
		if s.FileID == id {
			delete(r.shares, sid)
		}
	}
	return f, nil
}

func (r memFiles) DeleteExpired(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for id, f := range r.files {
		if f.IsExpired(r.now) {
			paths = append(paths, f.StoragePath)
			delete(r.files, id)
			for sid, s := range r.shares {
				if s.FileID == id {
					delete(r.shares, sid)
				}
			}
		}
	}
	return paths, nil
}

type memShares struct{ *memDB }

func (r memShares) get(match func(*share.Share) bool) *share.Share {
	for _, s := range r.shares {
		if match(s) && !s.IsExpired(r.now) {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (r memShares) FetchShareByID(_ context.Context, id share.UUID) (*share.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(func(s *share.Share) bool { return s.UUID == id }), nil
}

func (r memShares) FetchShareForRecipient(_ context.Context, fileID, recipientID uuid.UUID) (*share.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(func(s *share.Share) bool { return s.FileID == fileID && s.RecipientID == recipientID }), nil
}

func (r memShares) list(match func(*share.Share) bool) share.Shares {
	var out share.Shares
	for _, s := range r.shares {
		if match(s) && !s.IsExpired(r.now) {
			cp := *s
			f := r.files[s.FileID]
			cp.File = &share.FileRef{UUID: f.UUID, OriginalName: f.OriginalName, SizeBytes: f.SizeBytes, MimeType: f.MimeType}
			out = append(out, &cp)
		}
	}
	return out
}

func (r memShares) FetchSentShares(_ context.Context, senderID uuid.UUID) (share.Shares, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(s *share.Share) bool { return s.SenderID == senderID }), nil
}

func (r memShares) FetchReceivedShares(_ context.Context, recipientID uuid.UUID) (share.Shares, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(s *share.Share) bool { return s.RecipientID == recipientID }), nil
}

func (r memShares) CreateShare(_ context.Context, req *share.Share) (*share.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[req.FileID]; !ok {
		return nil, errs.ErrNotFound
	}
	for _, s := range r.shares {
		if s.FileID == req.FileID && s.RecipientID == req.RecipientID {
			return nil, errs.Validation("recipient", "file already shared with this user")
		}
	}
	cp := *req
	cp.UUID = uuid.New()
	r.shares[cp.UUID] = &cp
	out := cp
	return &out, nil
}

func (r memShares) IncrementAccess(_ context.Context, id share.UUID) (*share.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shares[id]
	if !ok || s.IsExpired(r.now) {
		return nil, nil
	}
	s.AccessCount++
	s.IsAccessed = true
	cp := *s
	return &cp, nil
}

func (r memShares) DeleteShare(_ context.Context, id share.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.shares, id)
	return nil
}

func (r memShares) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.shares {
		if s.IsExpired(r.now) {
			delete(r.shares, id)
			n++
		}
	}
	return n, nil
}

type FakePublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (p *FakePublisher) Publish(e mq.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *FakePublisher) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type FakeCipherStore struct {
	EncryptAndStoreFn func(ctx context.Context, r io.Reader, key keys.Key, originalName string) (cipherstore.Handle, int64, error)
	LoadAndDecryptFn  func(ctx context.Context, storagePath string, key keys.Key) ([]byte, error)
	DeleteFn          func(ctx context.Context, storagePath string) error
}

func (f *FakeCipherStore) EncryptAndStore(ctx context.Context, r io.Reader, key keys.Key, originalName string) (cipherstore.Handle, int64, error) {
	return f.EncryptAndStoreFn(ctx, r, key, originalName)
}

func (f *FakeCipherStore) LoadAndDecrypt(ctx context.Context, storagePath string, key keys.Key) ([]byte, error) {
	return f.LoadAndDecryptFn(ctx, storagePath, key)
}

func (f *FakeCipherStore) Delete(ctx context.Context, storagePath string) error {
	return f.DeleteFn(ctx, storagePath)
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_general_counters"}, []string{"result"})
}

// env wires every service against in-memory repositories and the real key
// manager and cipher store on a temp dir.
type env struct {
	db       *memDB
	keys     *keys.Manager
	cipher   ports.CipherStore
	pub      *FakePublisher
	users    *UserService
	files    *FileService
	shares   *ShareService
	gate     *AccessGate
	reaper   *Reaper
	blobRoot string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := newMemDB()
	km, err := keys.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	root := t.TempDir()
	backend, err := storage.NewLocal(root, zap.NewNop())
	require.NoError(t, err)
	cs, err := cipherstore.New(backend, zap.NewNop(), cipherstore.Options{Workers: 2, ChunkSize: 1024})
	require.NoError(t, err)

	pub := &FakePublisher{}
	counter := newCounter()
	policy := config.DefaultUploadPolicy(1 << 20)

	us := NewUserService(memUsers{db}, counter).(*UserService)
	us.hashCost = 4

	fs := NewFileService(memFiles{db}, km, cs, policy, file.DefaultTTL, pub, counter, zap.NewNop()).(*FileService)
	fs.now = db.clock

	ss := NewShareService(memShares{db}, memFiles{db}, memUsers{db}, pub, counter).(*ShareService)
	ss.now = db.clock

	gate := NewAccessGate(memFiles{db}, memShares{db}, km, cs, qr.New(16, time.Minute), "http://localhost:3000", pub, counter, zap.NewNop()).(*AccessGate)

	purged := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_reaper_purged"}, []string{"kind"})
	reaper := NewReaper(memFiles{db}, memShares{db}, cs, time.Minute, pub, purged, zap.NewNop()).(*Reaper)

	return &env{
		db:       db,
		keys:     km,
		cipher:   cs,
		pub:      pub,
		users:    us,
		files:    fs,
		shares:   ss,
		gate:     gate,
		reaper:   reaper,
		blobRoot: root,
	}
}

func (e *env) register(t *testing.T, name string) *user.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	return u
}
