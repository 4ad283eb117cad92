package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/orgchart/pkg/buildinfo"
	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/org"
)

// maxPhotoBytes caps the size of a single inlined photo.
const maxPhotoBytes = 5 << 20

// DefaultIconSVG is the placeholder avatar.
const DefaultIconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 36 36">` +
	`<rect width="36" height="36" fill="#c8c8c8"/>` +
	`<circle cx="18" cy="14" r="7" fill="#ffffff"/>` +
	`<path d="M5 36c1-8 6-12 13-12s12 4 13 12z" fill="#ffffff"/></svg>`

// DefaultIcon is the data URI drawn for employees without a loadable photo.
var DefaultIcon = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(DefaultIconSVG))

// ImageLoader resolves a photo URL to a data URI.
type ImageLoader interface {
	Load(ctx context.Context, url string) (string, error)
}

// LoaderFunc adapts a function to ImageLoader.
type LoaderFunc func(ctx context.Context, url string) (string, error)

// Load implements ImageLoader.
func (f LoaderFunc) Load(ctx context.Context, url string) (string, error) { return f(ctx, url) }

// DataURI encodes data with its sniffed content type.
func DataURI(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// HTTPLoader fetches photos from the backend. Relative URLs are resolved
// against BaseURL. Fetched photos are kept in Cache when one is set.
type HTTPLoader struct {
	BaseURL string
	Client  *http.Client

	// Header is sent with every request, typically the session cookie.
	Header http.Header

	Cache cache.Cache
	Keyer cache.Keyer

	// Backoff is the retry schedule for one photo.
	Backoff cache.Backoff
}

// NewHTTPLoader returns a loader for the backend at baseURL.
func NewHTTPLoader(baseURL string, c cache.Cache) *HTTPLoader {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &HTTPLoader{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Cache:   c,
		Keyer:   cache.NewDefaultKeyer(),
		Backoff: cache.Backoff{Attempts: 2, Delay: 200 * time.Millisecond},
	}
}

// Load implements ImageLoader.
func (l *HTTPLoader) Load(ctx context.Context, raw string) (string, error) {
	target, err := l.resolve(raw)
	if err != nil {
		return "", err
	}
	key := l.Keyer.HTTPKey("photo", target)
	if data, hit, err := l.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "photo")
		return string(data), nil
	}
	observability.Cache().OnCacheMiss(ctx, "photo")

	var uri string
	err = l.Backoff.Retry(ctx, func() error {
		data, err := l.fetch(ctx, target)
		if err != nil {
			return err
		}
		uri = DataURI(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	if err := l.Cache.Set(ctx, key, []byte(uri), cache.TTLPhoto); err == nil {
		observability.Cache().OnCacheSet(ctx, "photo", len(uri))
	}
	return uri, nil
}

func (l *HTTPLoader) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("photo url %q: %w", raw, err)
	}
	if ref.IsAbs() || l.BaseURL == "" {
		return ref.String(), nil
	}
	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", fmt.Errorf("base url %q: %w", l.BaseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (l *HTTPLoader) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, vs := range l.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, cache.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode))
	default:
		return nil, fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo %s exceeds %d bytes", target, maxPhotoBytes)
	}
	return data, nil
}

// photoExts are tried in order by DirLoader.
var photoExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// DirLoader serves photo URLs of the form /api/photo/{id} from files named
// {id}.jpg (or .jpeg, .png, .gif, .webp) in Dir.
type DirLoader struct {
	Dir string
}

// Load implements ImageLoader.
func (l DirLoader) Load(ctx context.Context, raw string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := ReadPhoto(l.Dir, PhotoID(raw))
	if err != nil {
		return "", err
	}
	return DataURI(data), nil
}

// PhotoID extracts the employee id from a /api/photo/{id} URL.
func PhotoID(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		raw = u.Path
	}
	if !org.IsDynamicPhoto(raw) {
		return ""
	}
	return path.Base(raw)
}

// ReadPhoto reads the photo file of employee id from dir.
func ReadPhoto(dir, id string) ([]byte, error) {
	if dir == "" || id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return nil, cache.ErrNotFound
	}
	for _, ext := range photoExts {
		data, err := os.ReadFile(filepath.Join(dir, id+ext))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, cache.ErrNotFound
}
