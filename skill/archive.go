package skill

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidArchive is returned when a zip does not hold a valid skill
// package (SKILL.md at the root plus a references/ directory).
var ErrInvalidArchive = errors.New("skill: invalid archive")

// Archive zips a rendered skill directory into zipPath. Entry order follows
// the directory walk, so identical trees archive identically.
func Archive(srcDir, zipPath string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(entry, src)
		return err
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("archive %s: %w", srcDir, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return f.Close()
}

// Validate checks that a zip file holds a skill package: SKILL.md at the
// root and at least one entry under references/.
func Validate(zipPath string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer r.Close()
	return validateReader(&r.Reader)
}

// ValidateBytes is Validate over an in-memory zip, for upload handlers.
func ValidateBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	return validateReader(r)
}

func validateReader(r *zip.Reader) error {
	var hasSkillMD, hasReferences bool
	for _, f := range r.File {
		switch {
		case f.Name == "SKILL.md":
			hasSkillMD = true
		case strings.HasPrefix(f.Name, "references/") && f.Name != "references/":
			hasReferences = true
		}
	}
	if !hasSkillMD {
		return fmt.Errorf("%w: missing SKILL.md at archive root", ErrInvalidArchive)
	}
	if !hasReferences {
		return fmt.Errorf("%w: missing references/ directory", ErrInvalidArchive)
	}
	return nil
}

// ReadSkillMD returns the SKILL.md content from a skill archive.
func ReadSkillMD(zipPath string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "SKILL.md" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open SKILL.md: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read SKILL.md: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: missing SKILL.md at archive root", ErrInvalidArchive)
}
