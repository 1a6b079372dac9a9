package middleware

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gomarten/spur"
)

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Root is the directory to serve files from, used when FS is nil.
	Root string
	// FS is the file system to serve files from.
	FS fs.FS
	// Index is the index file to serve for directories (default: "index.html")
	Index string
	// Browse enables directory browsing (default: false)
	Browse bool
	// MaxAge sets Cache-Control max-age in seconds (default: 0 = no cache)
	MaxAge int
	// NotFound answers missing files (default: 404 JSON)
	NotFound spur.Handler
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig(root string) StaticConfig {
	return StaticConfig{
		Root:  root,
		Index: "index.html",
	}
}

// Static serves files from root. Register it on a catch-all pattern such
// as "/assets/*"; the file name is taken from the "*" parameter.
func Static(root string) spur.Handler {
	return StaticWithConfig(DefaultStaticConfig(root))
}

// StaticWithConfig returns a file serving handler with custom config.
func StaticWithConfig(cfg StaticConfig) spur.Handler {
	fsys := cfg.FS
	if fsys == nil {
		if cfg.Root == "" {
			panic("static: root directory or FS is required")
		}
		fsys = os.DirFS(cfg.Root)
	}
	if cfg.Index == "" {
		cfg.Index = "index.html"
	}
	notFound := cfg.NotFound
	if notFound == nil {
		notFound = func(c *spur.Ctx) *spur.Response { return c.NotFound("not found") }
	}
	cacheControl := "no-cache"
	if cfg.MaxAge > 0 {
		cacheControl = fmt.Sprintf("public, max-age=%d", cfg.MaxAge)
	}

	return func(c *spur.Ctx) *spur.Response {
		if c.Method() != http.MethodGet && c.Method() != http.MethodHead {
			return c.JSON(http.StatusMethodNotAllowed, spur.E("method not allowed"))
		}

		urlPath := path.Clean("/" + c.Param("*"))
		name := strings.TrimPrefix(urlPath, "/")
		if name == "" {
			name = "."
		}
		if !fs.ValidPath(name) {
			return notFound(c)
		}

		stat, err := fs.Stat(fsys, name)
		if err != nil {
			return notFound(c)
		}
		if stat.IsDir() {
			index := path.Join(name, cfg.Index)
			if s, err := fs.Stat(fsys, index); err == nil && !s.IsDir() {
				name, stat = index, s
			} else if cfg.Browse {
				return dirListing(c, fsys, name, urlPath)
			} else {
				return notFound(c)
			}
		}

		f, err := fsys.Open(name)
		if err != nil {
			return c.ServerError("failed to open file")
		}
		defer f.Close()

		content, ok := f.(io.ReadSeeker)
		if !ok {
			b, err := io.ReadAll(f)
			if err != nil {
				return c.ServerError("failed to read file")
			}
			content = bytes.NewReader(b)
		}
		c.SetHeader("Cache-Control", cacheControl)
		http.ServeContent(c.Writer, c.Request, stat.Name(), stat.ModTime(), content)
		return nil
	}
}

// dirListing renders a directory listing.
func dirListing(c *spur.Ctx, fsys fs.FS, dir, urlPath string) *spur.Response {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return c.ServerError("failed to read directory")
	}

	escapedPath := html.EscapeString(urlPath)
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Index of ` + escapedPath + `</title>
	<style>
		body { font-family: monospace; margin: 2em; }
		h1 { border-bottom: 1px solid #ccc; padding-bottom: 0.5em; }
		ul { list-style: none; padding: 0; }
		li { padding: 0.5em 0; }
		a { text-decoration: none; color: #0066cc; }
		.dir { font-weight: bold; }
		.size { color: #666; margin-left: 1em; }
	</style>
</head>
<body>
	<h1>Index of ` + escapedPath + `</h1>
	<ul>`)

	// Links are relative to the mounted prefix of the request path.
	base := c.Path()
	if urlPath != "/" {
		b.WriteString(`<li><a href="` + html.EscapeString(path.Dir(base)) + `" class="dir">../</a></li>`)
	}
	for _, entry := range entries {
		name := entry.Name()
		escapedName := html.EscapeString(name)
		href := html.EscapeString(path.Join(base, name))
		if entry.IsDir() {
			b.WriteString(`<li><a href="` + href + `/" class="dir">` + escapedName + `/</a></li>`)
			continue
		}
		size := ""
		if info, err := entry.Info(); err == nil {
			size = formatSize(info.Size())
		}
		b.WriteString(`<li><a href="` + href + `">` + escapedName + `</a><span class="size">` + size + `</span></li>`)
	}
	b.WriteString(`</ul>
</body>
</html>`)

	return c.HTML(http.StatusOK, b.String())
}

// formatSize formats file size in human-readable format.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB"}
	if exp >= len(units) {
		exp = len(units) - 1
	}
	return fmt.Sprintf("%.1f %s", float64(size)/float64(div), units[exp])
}
