package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
)

// CacheEntryJSON is one row of `cache list --json`.
type CacheEntryJSON struct {
	Fingerprint string    `json:"fingerprint"`
	Kind        string    `json:"kind"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Expired     bool      `json:"expired"`
}

func (c *CLI) requireCache() error {
	if c.cache == nil {
		return output.NewErrorf(output.CodeCacheError, "cache is disabled (backend %q)", c.config.Cache.Backend)
	}
	return nil
}

// CacheList prints the stored entries, newest first.
func (c *CLI) CacheList(ctx context.Context, jsonOutput bool) error {
	if err := c.requireCache(); err != nil {
		return err
	}
	entries, err := c.cache.List(ctx)
	if err != nil {
		return output.Wrap(output.CodeCacheError, err, "failed to list cache")
	}
	now := c.cache.Now()

	if jsonOutput {
		rows := make([]CacheEntryJSON, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, CacheEntryJSON{
				Fingerprint: string(e.Fingerprint),
				Kind:        string(e.Kind),
				Size:        e.Size,
				CreatedAt:   e.CreatedAt.UTC(),
				ExpiresAt:   e.CreatedAt.Add(e.TTL).UTC(),
				Expired:     e.Expired(now),
			})
		}
		if err := c.output.WriteJSON(rows, nil); err != nil {
			return output.Wrap(output.CodeSinkWriteError, err, "failed to write output")
		}
		return nil
	}

	if len(entries) == 0 {
		c.output.WriteLine("(cache is empty)")
		return nil
	}
	var total uint64
	for _, e := range entries {
		state := "expires " + humanize.RelTime(e.CreatedAt.Add(e.TTL), now, "ago", "from now")
		if e.Expired(now) {
			state = "expired"
		}
		c.output.WriteLine(fmt.Sprintf("%s  %-8s  %8s  %s  %s",
			e.Fingerprint.Short(), e.Kind, humanize.Bytes(uint64(e.Size)),
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"), state))
		total += uint64(e.Size)
	}
	c.output.WriteLine(fmt.Sprintf("%d entries, %s", len(entries), humanize.Bytes(total)))
	return nil
}

// CachePrune drops expired entries.
func (c *CLI) CachePrune(ctx context.Context) error {
	if err := c.requireCache(); err != nil {
		return err
	}
	n, err := c.cache.InvalidateExpired(ctx)
	if err != nil {
		return output.Wrap(output.CodeCacheError, err, "failed to prune cache")
	}
	c.output.Successf("removed %d expired %s", n, plural(n, "entry", "entries"))
	return nil
}

// CacheClear drops every entry.
func (c *CLI) CacheClear(ctx context.Context) error {
	if err := c.requireCache(); err != nil {
		return err
	}
	if err := c.cache.Clear(ctx); err != nil {
		return output.Wrap(output.CodeCacheError, err, "failed to clear cache")
	}
	c.output.Success("cache cleared")
	return nil
}

// CachePath prints the cache directory.
func (c *CLI) CachePath() error {
	c.output.WriteLine(c.cacheDir)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
