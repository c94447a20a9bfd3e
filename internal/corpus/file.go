package corpus

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads a newline separated corpus from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", s.Path, err)
	}
	defer f.Close()

	return Parse(f)
}
