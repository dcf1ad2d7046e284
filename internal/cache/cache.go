// Package cache implements gitar's on-disk conditional-HTTP cache (spec.md
// §3 Cache entry, §4.2, §6 Filesystem layout). It is grounded on the
// teacher's cached-repository decorator (in-memory sync.Map) generalized to
// a filesystem store, and on the original gitar's cache/filesystem.rs for
// the key-hashing and atomic-write shape.
package cache

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/denchenko/gitar/internal/grerror"
)

const formatVersion byte = 1

// Entry is one cached response, self-describing enough to decide whether a
// conditional revalidation is possible (spec.md §3).
type Entry struct {
	Status         int
	ETag           string
	LastModified   string
	StoredAt       time.Time
	Headers        http.Header
	Body           []byte
}

// HasValidators reports whether the entry carries a validator that permits
// a conditional revalidation request (spec.md §3 invariant).
func (e *Entry) HasValidators() bool {
	return e.ETag != "" || e.LastModified != ""
}

// Store is a content-addressed filesystem key-value store rooted at
// location. A zero-value location means the cache is disabled: Get then
// always reports absent and Put writes nothing (spec.md §3: "absent
// cache_location ⇒ cache bypassed").
type Store struct {
	location string
}

// New returns a Store rooted at location. An empty location yields a
// disabled store.
func New(location string) *Store {
	return &Store{location: location}
}

// Enabled reports whether this store is backed by a real location.
func (s *Store) Enabled() bool {
	return s.location != ""
}

// Key computes the SHA-256 cache key over method, canonical URL, sorted
// query, body hash and an authenticated-user discriminator (spec.md §3 —
// richer than the original Rust implementation's URL-only hash, per
// spec.md §3's key definition, which supersedes it).
func Key(method string, rawURL string, body []byte, authDiscriminator string) string {
	u, err := url.Parse(rawURL)

	canonical := rawURL
	query := ""
	if err == nil {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('&')
			}
			vals := q[k]
			sort.Strings(vals)
			for j, v := range vals {
				if j > 0 {
					sb.WriteByte('&')
				}
				sb.WriteString(k)
				sb.WriteByte('=')
				sb.WriteString(v)
			}
		}
		query = sb.String()

		u.RawQuery = ""
		canonical = u.String()
	}

	bodyHash := sha256.Sum256(body)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%x|%s", strings.ToUpper(method), canonical, query, bodyHash, authDiscriminator)

	return hex.EncodeToString(h.Sum(nil))
}

// path computes the on-disk location for a key within domain/category:
// <location>/<domain>/<category>/<hex[0:2]>/<hex> (spec.md §6).
func (s *Store) path(domain, category, key string) string {
	prefix := key
	if len(key) >= 2 {
		prefix = key[:2]
	}

	return filepath.Join(s.location, domain, category, prefix, key)
}

// Get reads the entry for key under domain/category. A missing, truncated
// or unparsable file is reported as "absent" (ok=false), never as an
// error, per spec.md §4.2's cache taxonomy.
func (s *Store) Get(domain, category, key string) (*Entry, bool) {
	if !s.Enabled() {
		return nil, false
	}

	f, err := os.Open(s.path(domain, category, key))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	entry, err := decode(f)
	if err != nil {
		return nil, false
	}

	return entry, true
}

// Put writes entry for key under domain/category, atomically (temp file +
// rename, spec.md §4.2). Returns a grerror.Cache error if the write fails;
// callers should log and continue (a cache write failure never aborts the
// surrounding request).
func (s *Store) Put(domain, category, key string, entry *Entry) error {
	if !s.Enabled() {
		return nil
	}

	dest := s.path(domain, category, key)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return grerror.Wrap(grerror.Cache, "creating cache directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+key+".tmp-*")
	if err != nil {
		return grerror.Wrap(grerror.Cache, "creating temp cache file", err)
	}
	tmpPath := tmp.Name()

	if err := encode(tmp, entry); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return grerror.Wrap(grerror.Cache, "encoding cache entry", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return grerror.Wrap(grerror.Cache, "closing temp cache file", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)

		return grerror.Wrap(grerror.Cache, "renaming cache file into place", err)
	}

	return nil
}

// Touch rewrites an entry's StoredAt, used after a 304 revalidation to
// reset the freshness clock without re-fetching the body (spec.md §4.2).
// stored_at is monotonic per key, so a value older than the existing one is
// ignored.
func (s *Store) Touch(domain, category, key string, newStoredAt time.Time) error {
	entry, ok := s.Get(domain, category, key)
	if !ok {
		return nil
	}

	if !newStoredAt.After(entry.StoredAt) {
		return nil
	}

	entry.StoredAt = newStoredAt

	return s.Put(domain, category, key, entry)
}

func encode(w io.Writer, e *Entry) error {
	bw := bufio.NewWriter(w)

	if err := bw.WriteByte(formatVersion); err != nil {
		return err
	}
	if err := writeUint16(bw, uint16(e.Status)); err != nil {
		return err
	}
	if err := writeString16(bw, e.ETag); err != nil {
		return err
	}
	if err := writeString16(bw, e.LastModified); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, e.StoredAt.UnixMilli()); err != nil {
		return err
	}

	headerBlob := encodeHeaders(e.Headers)
	if err := writeBlob32(bw, headerBlob); err != nil {
		return err
	}
	if err := writeBlob32(bw, e.Body); err != nil {
		return err
	}

	return bw.Flush()
}

func decode(r io.Reader) (*Entry, error) {
	br := bufio.NewReader(r)

	version, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported cache entry version %d", version)
	}

	status, err := readUint16(br)
	if err != nil {
		return nil, err
	}

	etag, err := readString16(br)
	if err != nil {
		return nil, err
	}

	lastModified, err := readString16(br)
	if err != nil {
		return nil, err
	}

	var storedAtMillis int64
	if err := binary.Read(br, binary.BigEndian, &storedAtMillis); err != nil {
		return nil, err
	}

	headerBlob, err := readBlob32(br)
	if err != nil {
		return nil, err
	}

	body, err := readBlob32(br)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Status:       int(status),
		ETag:         etag,
		LastModified: lastModified,
		StoredAt:     time.UnixMilli(storedAtMillis).UTC(),
		Headers:      decodeHeaders(headerBlob),
		Body:         body,
	}, nil
}

func writeUint16(w io.Writer, v uint16) error {
	return binary.Write(w, binary.BigEndian, v)
}

func readUint16(r io.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)

	return v, err
}

func writeString16(w io.Writer, s string) error {
	if err := writeUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)

	return err
}

func readString16(r io.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}

func writeBlob32(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)

	return err
}

func readBlob32(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// encodeHeaders serializes headers as "Key: value\n" lines, one per value,
// sorted for determinism. The blob is opaque on disk; this is an internal
// representation only, per spec.md §6 ("format is private").
func encodeHeaders(h http.Header) []byte {
	var buf bytes.Buffer

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range h[k] {
			buf.WriteString(k)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes()
}

func decodeHeaders(blob []byte) http.Header {
	h := http.Header{}

	scanner := bufio.NewScanner(bytes.NewReader(blob))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		h.Add(key, value)
	}

	return h
}
