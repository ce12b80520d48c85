package tokens

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadTimeout bounds fetching an encoding file that is not cached yet.
const DownloadTimeout = 15 * time.Second

// bpeLoader reads encoding files from the tiktoken cache directory and
// downloads missing ones with a bounded client. Cache keys match tiktoken's
// own loader, so files cached by either are shared.
type bpeLoader struct {
	client   *http.Client
	cacheDir string
}

func newBpeLoader() *bpeLoader {
	return &bpeLoader{
		client:   &http.Client{Timeout: DownloadTimeout},
		cacheDir: cacheDir(),
	}
}

func cacheDir() string {
	for _, key := range []string{"TIKTOKEN_CACHE_DIR", "DATA_GYM_CACHE_DIR"} {
		if dir := strings.TrimSpace(os.Getenv(key)); dir != "" {
			return dir
		}
	}
	return filepath.Join(os.TempDir(), "data-gym-cache")
}

func (l *bpeLoader) LoadTiktokenBpe(src string) (map[string]int, error) {
	data, err := l.read(src)
	if err != nil {
		return nil, err
	}
	return parseBpe(data)
}

func (l *bpeLoader) read(src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.ReadFile(src)
	}

	cachePath := filepath.Join(l.cacheDir, fmt.Sprintf("%x", sha1.Sum([]byte(src))))
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	resp, err := l.client.Get(src)
	if err != nil {
		return nil, fmt.Errorf("download encoding: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download encoding: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download encoding: %w", err)
	}

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return data, nil
	}
	tmp := cachePath + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return data, nil
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		_ = os.Remove(tmp)
	}
	return data, nil
}

func parseBpe(data []byte) (map[string]int, error) {
	ranks := make(map[string]int)
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		token, rank, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("parse encoding: malformed line %q", line)
		}
		raw, err := base64.StdEncoding.DecodeString(token)
		if err != nil {
			return nil, fmt.Errorf("parse encoding: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rank))
		if err != nil {
			return nil, fmt.Errorf("parse encoding: %w", err)
		}
		ranks[string(raw)] = n
	}
	return ranks, nil
}
