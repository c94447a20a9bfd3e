// Package corpus loads the example names the name model is trained on.
package corpus

import (
	"bufio"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"prospero-server/internal/shared/config"
)

//go:embed default.txt
var defaultCorpus string

// Source yields a training corpus.
type Source interface {
	Load(ctx context.Context) ([]string, error)
	Name() string
}

// FromConfig picks the configured source: a remote URL wins over a file,
// and with neither set the embedded corpus is used.
func FromConfig(cfg config.CorpusConfig) Source {
	switch {
	case cfg.URL != "":
		return NewHTTPSource(cfg)
	case cfg.Path != "":
		return FileSource{Path: cfg.Path}
	default:
		return Embedded()
	}
}

type embeddedSource struct{}

// Embedded returns the built-in star name corpus.
func Embedded() Source {
	return embeddedSource{}
}

func (embeddedSource) Name() string { return "embedded" }

func (embeddedSource) Load(context.Context) ([]string, error) {
	return Parse(strings.NewReader(defaultCorpus))
}

// Parse reads one name per line. Surrounding whitespace is trimmed, and
// blank lines and lines starting with '#' are skipped. Duplicates are kept
// so that they weigh more in training.
func Parse(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return names, nil
}

// Digest fingerprints a corpus. Two runs with the same parameters and the
// same digest produce the same world.
func Digest(names []string) string {
	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
