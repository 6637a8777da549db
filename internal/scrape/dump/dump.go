// Package dump reads fragments that an external scraper wrote to disk.
package dump

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/scrape/types"
)

const processedDir = "processed"

type Source struct {
	Dir string
}

func New(dir string) *Source { return &Source{Dir: dir} }

func (s *Source) Name() string { return "dump" }

// Fetch reads every *.json and *.ndjson file in Dir. Files that cannot be
// parsed are logged and left in place. Finalize moves the parsed ones into
// Dir/processed.
func (s *Source) Fetch(ctx context.Context) (types.Batch, error) {
	b := types.Batch{Source: s.Name()}

	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return b, fmt.Errorf("dump read dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".json" || ext == ".ndjson" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var done []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return b, err
		}
		path := filepath.Join(s.Dir, name)
		frags, err := ReadFile(path)
		if err != nil {
			log.Printf("[dump] skip %s: %v", name, err)
			continue
		}
		for i := range frags {
			if frags[i].Source == "" {
				frags[i].Source = s.Name()
			}
		}
		b.Fragments = append(b.Fragments, frags...)
		done = append(done, name)
	}

	if len(done) > 0 {
		b.Finalize = func(context.Context) error { return s.archive(done) }
	}
	return b, nil
}

func (s *Source) archive(names []string) error {
	dst := filepath.Join(s.Dir, processedDir)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	var errs []error
	for _, n := range names {
		if err := os.Rename(filepath.Join(s.Dir, n), filepath.Join(dst, n)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReadFile parses one dump file. NDJSON skips blank lines and fails on the
// first bad line; JSON may hold one fragment or an array of them.
func ReadFile(path string) ([]domain.RawScrapeFragment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".ndjson") {
		return parseNDJSON(raw)
	}
	return Parse(raw)
}

// Parse decodes a single fragment or an array of fragments.
func Parse(raw []byte) ([]domain.RawScrapeFragment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []domain.RawScrapeFragment
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var f domain.RawScrapeFragment
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return []domain.RawScrapeFragment{f}, nil
}

func parseNDJSON(raw []byte) ([]domain.RawScrapeFragment, error) {
	var out []domain.RawScrapeFragment
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 8<<20)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var f domain.RawScrapeFragment
		if err := json.Unmarshal(text, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, f)
	}
	return out, sc.Err()
}
