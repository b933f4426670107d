package vault

import (
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Vault composes a Store with the encrypted file format. Save and Load are
// mutually exclusive; Add and List may run alongside either and observe the
// store before or after a Load, never in between.
type Vault struct {
	mu     sync.Mutex
	store  *Store
	codec  Codec
	cipher *Cipher
	rand   io.Reader
	log    hclog.Logger
}

type options struct {
	capacity int
	limits   Limits
	suite    string
	layout   string
	rand     io.Reader
	log      hclog.Logger
}

// Option configures a Vault.
type Option func(*options)

func WithCapacity(n int) Option { return func(o *options) { o.capacity = n } }

func WithLimits(l Limits) Option { return func(o *options) { o.limits = l } }

// WithCipherSuite selects SuiteAESGCM (default) or SuiteChaCha20Poly1305.
func WithCipherSuite(suite string) Option { return func(o *options) { o.suite = suite } }

// WithLayout selects LayoutFramed (default) or LayoutSlotted.
func WithLayout(layout string) Option { return func(o *options) { o.layout = layout } }

// WithRand replaces the nonce source. Only tests should need this.
func WithRand(r io.Reader) Option { return func(o *options) { o.rand = r } }

func WithLogger(l hclog.Logger) Option { return func(o *options) { o.log = l } }

func New(opts ...Option) (*Vault, error) {
	o := options{
		capacity: DefaultCapacity,
		limits:   DefaultLimits(),
		suite:    SuiteAESGCM,
		layout:   LayoutFramed,
		rand:     defaultRand,
		log:      hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := NewCipher(o.suite)
	if err != nil {
		return nil, err
	}
	codec, err := NewCodec(o.layout, o.limits)
	if err != nil {
		return nil, err
	}
	return &Vault{
		store:  NewStore(o.capacity, o.limits),
		codec:  codec,
		cipher: c,
		rand:   o.rand,
		log:    o.log,
	}, nil
}

// Store exposes the underlying records for callers that need more than
// add and list.
func (v *Vault) Store() *Store { return v.store }

func (v *Vault) AddAccount(site, username, password string) error {
	return v.store.Add(site, username, password)
}

func (v *Vault) ListAccounts() []Record {
	return v.store.List()
}

// Save encrypts the current records under key and replaces the file at path.
// A fresh nonce is drawn for every call. The caller keeps ownership of key
// and should Zero it when done.
func (v *Vault) Save(path string, key []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	k := scopedKey(key)
	defer zero(k)

	records := v.store.List()
	pt, err := v.codec.Encode(records)
	if err != nil {
		return v.fail("save", path, err)
	}
	defer zero(pt)

	nonce, err := randBytes(v.rand, NonceLen)
	if err != nil {
		return v.fail("save", path, &Error{Kind: IOError, Op: "save", Err: errors.Wrap(err, "cannot generate nonce")})
	}

	ct, tag, err := v.cipher.Seal(k, nonce, pt)
	if err != nil {
		return v.fail("save", path, err)
	}

	raw := sealedFile{nonce: nonce, ciphertext: ct, tag: tag}.bytes()
	if err := atomicWriteFile(path, raw, FileMode, v.log); err != nil {
		return v.fail("save", path, &Error{Kind: IOError, Op: "save", Err: err})
	}

	v.log.Debug("vault saved", "path", path, "records", len(records),
		"cipher", v.cipher.Suite(), "layout", v.codec.Name(), "bytes", len(raw))
	return nil
}

// Load reads the file at path, verifies and decrypts it under key and
// replaces the in-memory records. On any error the store is unchanged.
func (v *Vault) Load(path string, key []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	k := scopedKey(key)
	defer zero(k)

	raw, err := readFile(path)
	if err != nil {
		return v.fail("load", path, err)
	}
	f, err := splitFile(raw)
	if err != nil {
		return v.fail("load", path, err)
	}

	pt, err := v.cipher.Open(k, f.nonce, f.ciphertext, f.tag)
	if err != nil {
		return v.fail("load", path, err)
	}
	defer zero(pt)

	n, err := v.codec.Count(pt)
	if err != nil {
		return v.fail("load", path, err)
	}
	records, err := v.codec.Decode(pt, n)
	if err != nil {
		return v.fail("load", path, err)
	}
	if err := v.store.ReplaceAll(records); err != nil {
		return v.fail("load", path, err)
	}

	v.log.Debug("vault loaded", "path", path, "records", len(records),
		"cipher", v.cipher.Suite(), "layout", v.codec.Name())
	return nil
}

func (v *Vault) fail(op, path string, err error) error {
	v.log.Warn("vault "+op+" failed", "path", path, "kind", KindOf(err).String())
	return err
}

// scopedKey copies key so it can be wiped without touching the caller's
// buffer.
func scopedKey(key []byte) []byte {
	k := make([]byte, len(key))
	copy(k, key)
	return k
}
