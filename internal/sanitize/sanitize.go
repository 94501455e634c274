// Package sanitize re-encodes input datasets to strict 7-bit text: a leading
// byte-order mark is removed and every non-ASCII character is dropped, not
// substituted. Invalid UTF-8 sequences are dropped as well.
package sanitize

import (
	"FlowTagger/internal/fsutil"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/model"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var log = logger.MustGetLogger("sanitize")

const maxASCII = 0x7F

// newTransformer returns a fresh transformer; transformers keep state and
// must not be shared between streams.
func newTransformer() transform.Transformer {
	return transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > maxASCII })),
	)
}

// NewReader returns a reader yielding the 7-bit clean content of r.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, newTransformer())
}

// File rewrites the file at path in its 7-bit clean form. The rewrite is
// atomic: on failure the original file is untouched.
func File(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		log.Errorf("Failed to clean '%s': %v", path, err)
		return fmt.Errorf("%w: failed to stat '%s': %w", model.ErrDataSource, path, err)
	}

	in, err := os.Open(path)
	if err != nil {
		log.Errorf("Failed to clean '%s': %v", path, err)
		return fmt.Errorf("%w: failed to open '%s': %w", model.ErrDataSource, path, err)
	}
	defer in.Close()

	err = fsutil.WriteFileAtomic(path, info.Mode().Perm(), func(w io.Writer) error {
		if _, err := io.Copy(w, NewReader(in)); err != nil {
			return fmt.Errorf("%w: failed to read '%s': %w", model.ErrDataSource, path, err)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Failed to clean '%s': %v", path, err)
		return err
	}

	log.Infof("File '%s' has been cleaned and converted to ASCII.", path)
	return nil
}
