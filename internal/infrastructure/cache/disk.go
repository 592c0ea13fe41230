// Package cache persists fetch results as content-addressed files keyed by
// URL hash, so repeated domain checks skip the network entirely.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alexjc/weboptout/internal/ports"
)

// Disk is an on-disk page cache. All operations are best-effort: a broken
// cache degrades to a miss, never to a failed fetch.
type Disk struct {
	dir    string
	logger *slog.Logger
}

var _ ports.PageCache = (*Disk)(nil)

// NewDisk creates the cache directory if needed.
func NewDisk(dir string, logger *slog.Logger) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir, logger: logger}, nil
}

// Get loads the entry for url, if present and readable.
func (d *Disk) Get(url string) (*ports.FetchResult, bool) {
	raw, err := os.ReadFile(d.path(url))
	if err != nil {
		return nil, false
	}
	var res ports.FetchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		d.debug("discarding unreadable cache entry", "url", url, "error", err)
		return nil, false
	}
	return &res, true
}

// Put stores the entry for url.
func (d *Disk) Put(url string, res *ports.FetchResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		d.debug("cannot encode cache entry", "url", url, "error", err)
		return
	}
	if err := os.WriteFile(d.path(url), raw, 0o644); err != nil {
		d.debug("cannot write cache entry", "url", url, "error", err)
	}
}

func (d *Disk) path(url string) string {
	sum := md5.Sum([]byte(url))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:])+".json")
}

func (d *Disk) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
