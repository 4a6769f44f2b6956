package site

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/tersite/ter/renderer"
)

const (
	indexName = "index"
	tagsRoot  = "/tags"
)

// pagePath derives the canonical identity of a content file from its
// input-relative name. Both "a.md" and "a/index.md" yield "/a".
func pagePath(rel string) (canonical, dir string, isIndex bool) {
	slash := strings.TrimPrefix(filepath.ToSlash(rel), "/")
	dir = path.Clean("/" + path.Dir(slash))

	stem := strings.TrimSuffix(slash, path.Ext(slash))
	if strings.EqualFold(path.Base(stem), indexName) {
		return dir, dir, true
	}
	return path.Clean("/" + stem), dir, false
}

func routeFor(canonical string) string {
	if canonical == "/" {
		return "/"
	}
	return canonical + "/"
}

func slugFor(canonical string) string {
	if canonical == "/" {
		return ""
	}
	return path.Base(canonical)
}

func parentOf(canonical string) string {
	return path.Dir(canonical)
}

// outputFile is the output-relative location of a rendered route.
func outputFile(canonical string) string {
	return path.Join(parentOf(canonical), slugFor(canonical), "index.html")[1:]
}

func tagPath(tag string) string {
	return path.Join(tagsRoot, renderer.Slugify(tag))
}

// assetExts are the extensions of files a link can target that are not
// pages. Any other target, including directory links such as "../" and
// names with dots such as "v1.2", is treated as a page.
var assetExts = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {}, "avif": {}, "svg": {}, "ico": {}, "bmp": {},
	"pdf": {}, "txt": {}, "csv": {}, "json": {}, "xml": {}, "css": {}, "js": {}, "mjs": {}, "map": {},
	"woff": {}, "woff2": {}, "ttf": {}, "otf": {}, "eot": {},
	"mp3": {}, "mp4": {}, "webm": {}, "ogg": {}, "wav": {}, "mov": {},
	"zip": {}, "gz": {}, "tgz": {}, "tar": {},
}

// resolveLink maps a markdown link destination written in a file under dir to
// the canonical path of the page it targets. External references, bare
// fragments and links to asset files are reported as not internal.
func resolveLink(dir, destination string) (canonical string, fragment string, ok bool) {
	destination = strings.TrimSpace(destination)
	if destination == "" || strings.HasPrefix(destination, "#") || strings.HasPrefix(destination, "//") {
		return "", "", false
	}
	u, err := url.Parse(destination)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" || u.Path == "" {
		return "", "", false
	}

	target := u.Path
	if !strings.HasPrefix(target, "/") {
		target = path.Join(dir, target)
	}
	canonical = normalizeLink(target)
	if isAsset(canonical) {
		return "", "", false
	}
	return canonical, u.Fragment, true
}

func isAsset(canonical string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(canonical), "."))
	if ext == "" {
		return false
	}
	_, ok := assetExts[ext]
	return ok
}

// normalizeLink cleans a site-absolute target so that it compares equal to a
// page path.
func normalizeLink(target string) string {
	cleaned := path.Clean("/" + target)
	switch strings.ToLower(path.Ext(cleaned)) {
	case ".md", ".html":
		cleaned = strings.TrimSuffix(cleaned, path.Ext(cleaned))
	}
	if cleaned != "/" && strings.EqualFold(path.Base(cleaned), indexName) {
		cleaned = path.Dir(cleaned)
	}
	return cleaned
}

// isHiddenOrUnderscored reports whether any segment of rel starts with "."
// or "_".
func isHiddenOrUnderscored(rel string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		if strings.HasPrefix(segment, ".") || strings.HasPrefix(segment, "_") {
			return true
		}
	}
	return false
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}
