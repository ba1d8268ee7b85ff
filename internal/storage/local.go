// Package storage writes uploaded attachment files to the local filesystem.
package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/domain"
)

var (
	// ErrEmptyName is returned for uploads without a usable file name.
	ErrEmptyName = errors.New("storage: upload has no file name")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("storage: upload exceeds size limit")
	// ErrOutsideRoot is returned for paths escaping the upload directory.
	ErrOutsideRoot = errors.New("storage: path outside upload directory")
)

// MaxNameLength bounds stored file names, matching the attachments.file_name
// column.
const MaxNameLength = 150

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Size reports the byte length of in-memory content. Streams of unknown
// length report false.
func (u Upload) Size() (int64, bool) {
	if l, ok := u.Content.(interface{ Len() int }); ok {
		return int64(l.Len()), true
	}
	return 0, false
}

// LocalStore keeps files under <root>/<owner kind>_<owner id>/. Stored names
// carry a snowflake id prefix so repeated uploads never collide.
type LocalStore struct {
	root     string
	maxBytes int64
	node     *snowflake.Node
}

// NewLocalStore prepares the upload directory described by cfg.
func NewLocalStore(cfg config.UploadConfig) (*LocalStore, error) {
	if cfg.Dir == "" {
		return nil, errors.New("storage: upload dir required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", cfg.Dir, err)
	}
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("storage: snowflake node: %w", err)
	}
	return &LocalStore{root: cfg.Dir, maxBytes: cfg.MaxBytes, node: node}, nil
}

// Save writes the upload for owner and returns the attachment metadata. The
// returned attachment is bound to owner but not yet persisted.
func (s *LocalStore) Save(owner domain.Owner, up Upload) (domain.Attachment, error) {
	name := sanitizeName(up.Filename)
	if name == "" {
		return domain.Attachment{}, ErrEmptyName
	}

	rel := filepath.Join(fmt.Sprintf("%s_%d", owner.Kind, owner.ID), s.node.Generate().String()+"_"+name)
	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return domain.Attachment{}, fmt.Errorf("storage: create dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("storage: create file: %w", err)
	}

	hasher, _ := blake2b.New256(nil)
	src := up.Content
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	size, copyErr := io.Copy(io.MultiWriter(f, hasher), src)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(full)
		return domain.Attachment{}, fmt.Errorf("storage: write file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(full)
		return domain.Attachment{}, fmt.Errorf("storage: close file: %w", closeErr)
	case s.maxBytes > 0 && size > s.maxBytes:
		_ = os.Remove(full)
		return domain.Attachment{}, ErrTooLarge
	}

	attachment := domain.Attachment{
		FilePath:  filepath.ToSlash(rel),
		FileName:  name,
		SizeBytes: size,
		Checksum:  hex.EncodeToString(hasher.Sum(nil)),
	}
	owner.Bind(&attachment)
	return attachment, nil
}

// Admit rejects an upload whose known size already exceeds the limit, so
// callers can refuse a request before writing anything. Unsized streams are
// still checked by Save.
func (s *LocalStore) Admit(up Upload) error {
	if s.maxBytes <= 0 || sanitizeName(up.Filename) == "" {
		return nil
	}
	if n, ok := up.Size(); ok && n > s.maxBytes {
		return ErrTooLarge
	}
	return nil
}

// Open opens a stored file by the path recorded on its attachment.
func (s *LocalStore) Open(path string) (*os.File, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.root, clean), nil
}

// sanitizeName keeps the base name, drops characters unsafe in paths and
// shortens it to MaxNameLength runes with the extension preserved.
func sanitizeName(raw string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return shortenName(strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case strings.ContainsRune(`:*?"<>|`, r):
			return '_'
		case r == ' ':
			return '_'
		}
		return r
	}, base))
}

// maxNameBytes keeps "<snowflake>_<name>" under the 255 byte NAME_MAX.
const maxNameBytes = 200

func shortenName(name string) string {
	if utf8.RuneCountInString(name) <= MaxNameLength && len(name) <= maxNameBytes {
		return name
	}
	ext := filepath.Ext(name)
	if utf8.RuneCountInString(ext) > 16 {
		ext = ""
	}
	runeBudget := MaxNameLength - utf8.RuneCountInString(ext)
	byteBudget := maxNameBytes - len(ext)

	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSuffix(name, ext) {
		if n == runeBudget || b.Len()+utf8.RuneLen(r) > byteBudget {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + ext
}
