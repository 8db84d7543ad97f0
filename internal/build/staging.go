package build

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
)

// StageSuffix is appended to the output directory to name the parent of staging directories.
const StageSuffix = ".stage"

// PrevSuffix names the previous output directory while it is being swapped out.
const PrevSuffix = ".prev"

// staging is the private output directory of one build. Files are only visible in the real
// output directory after promote.
type staging struct {
	out string
	dir string

	mu      sync.Mutex
	claimed map[string]string
}

// beginStaging creates a fresh staging directory for buildID next to out.
func beginStaging(out, buildID string) (*staging, error) {
	dir := filepath.Join(out+StageSuffix, buildID)
	if err := os.RemoveAll(dir); err != nil {
		return nil, stagingError("failed to clear staging directory", dir, err)
	}
	if err := mkdirStaging(dir); err != nil {
		return nil, stagingError("failed to create staging directory", dir, err)
	}
	return &staging{out: out, dir: dir, claimed: make(map[string]string)}, nil
}

var mkdirAll = os.MkdirAll

// stagingAttempts bounds mkdirStaging's retries.
const stagingAttempts = 3

// mkdirStaging creates dir and its shared parent. A superseded build finishing concurrently
// removes the parent once it is empty, which can make MkdirAll fail between creating the
// parent and creating dir; that case is retried.
func mkdirStaging(dir string) error {
	var err error
	for range stagingAttempts {
		if err = mkdirAll(dir, 0o750); err == nil || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return err
}

// claim reserves a relative output path for one producer. Two producers writing the same path
// would make the result depend on scheduling order, so the second claim fails.
func (s *staging) claim(rel, producer string) (string, error) {
	clean, err := cleanOutputPath(rel)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.claimed[clean]; ok {
		return "", foundationerrors.BuildError("output path produced twice").
			OnChange().
			WithContext("path", clean).
			WithContext("source", producer).
			WithContext("other", other).
			Build()
	}
	s.claimed[clean] = producer
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

// WriteFile writes data to the relative output path rel.
func (s *staging) WriteFile(rel, producer string, data []byte) error {
	dst, err := s.claim(rel, producer)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return stagingError("failed to create output directory", rel, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return stagingError("failed to write output file", rel, err)
	}
	return nil
}

// CopyFile copies the file at src to the relative output path rel.
func (s *staging) CopyFile(src, rel string) error {
	dst, err := s.claim(rel, src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return stagingError("failed to create output directory", rel, err)
	}
	// #nosec G304 -- src comes from the site scan.
	in, err := os.Open(src)
	if err != nil {
		return foundationerrors.ScanError("failed to open asset").WithCause(err).WithContext("path", src).Build()
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return stagingError("failed to create output file", rel, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return stagingError("failed to copy asset", rel, err)
	}
	if err := out.Close(); err != nil {
		return stagingError("failed to close output file", rel, err)
	}
	return nil
}

// Digest hashes the staged tree. It returns the tree digest and a per-file hash map keyed by
// slash-separated relative path.
func (s *staging) Digest() (string, map[string]string, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(s.dir, p)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return "", nil, stagingError("failed to walk staging directory", s.dir, err)
	}
	sort.Strings(paths)

	h := xxh3.New()
	files := make(map[string]string, len(paths))
	var length [8]byte
	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(rel)))
		if err != nil {
			return "", nil, stagingError("failed to read staged file", rel, err)
		}
		files[rel] = fmt.Sprintf("%016x", xxh3.Hash(data))

		_, _ = h.WriteString(rel)
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		_, _ = h.Write(length[:])
		_, _ = h.Write(data)
	}
	return fmt.Sprintf("%016x", h.Sum64()), files, nil
}

// promote replaces the output directory with the staged tree. The previous output is moved
// aside first and restored if the swap fails.
func (s *staging) promote() error {
	prev := s.out + PrevSuffix
	if err := os.RemoveAll(prev); err != nil {
		return stagingError("failed to remove previous output backup", prev, err)
	}

	hadOutput := true
	if err := os.Rename(s.out, prev); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return stagingError("failed to move previous output aside", s.out, err)
		}
		hadOutput = false
	}

	if err := os.Rename(s.dir, s.out); err != nil {
		if hadOutput {
			_ = os.Rename(prev, s.out)
		}
		return stagingError("failed to promote staging directory", s.dir, err)
	}

	if hadOutput {
		if err := os.RemoveAll(prev); err != nil {
			return stagingError("failed to remove previous output", prev, err)
		}
	}
	// Fails while other builds are still staging, which is fine.
	_ = os.Remove(filepath.Dir(s.dir))
	return nil
}

// abort discards the staged tree.
func (s *staging) abort() {
	_ = os.RemoveAll(s.dir)
	_ = os.Remove(filepath.Dir(s.dir))
}

// cleanOutputPath normalizes rel and rejects paths that would leave the output directory.
func cleanOutputPath(rel string) (string, error) {
	clean := path.Clean(filepath.ToSlash(rel))
	if rel == "" || path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", foundationerrors.BuildError("output path escapes the output directory").
			OnChange().
			WithContext("path", rel).
			Build()
	}
	return clean, nil
}

func stagingError(msg, p string, err error) error {
	return foundationerrors.FileSystemError(msg).Fatal().WithCause(err).WithContext("path", p).Build()
}
