package executor

import (
	"path/filepath"
	"strings"

	"github.com/vk/cppbuildgo/internal/model"
	"github.com/vk/cppbuildgo/internal/template"
)

// fileScope builds the per-file command scope for one workspace-relative
// path. Values are stored as escaped template text.
func fileScope(path string) model.Scope {
	parts := splitPath(path)
	return model.Scope{
		"filePath":          model.String(template.Escape(parts.path)),
		"fileDirectory":     model.String(template.Escape(parts.dir)),
		"fileDirectoryName": model.String(template.Escape(parts.dirName)),
		"fileName":          model.String(template.Escape(parts.stem)),
		"fullFileName":      model.String(template.Escape(parts.base)),
		"fileExtension":     model.String(template.Escape(parts.ext)),
	}
}

// fileListScope builds the once-mode scope in which every file variable
// is multi-valued across the whole list.
func fileListScope(paths []string) model.Scope {
	n := len(paths)
	full, dirs, dirNames, stems, bases, exts := make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
	for i, p := range paths {
		parts := splitPath(p)
		full[i] = template.Escape(parts.path)
		dirs[i] = template.Escape(parts.dir)
		dirNames[i] = template.Escape(parts.dirName)
		stems[i] = template.Escape(parts.stem)
		bases[i] = template.Escape(parts.base)
		exts[i] = template.Escape(parts.ext)
	}
	return model.Scope{
		"filePath":          model.List(full...),
		"fileDirectory":     model.List(dirs...),
		"fileDirectoryName": model.List(dirNames...),
		"fileName":          model.List(stems...),
		"fullFileName":      model.List(bases...),
		"fileExtension":     model.List(exts...),
	}
}

// directoryScope builds the per-directory command scope.
func directoryScope(root, dir string) model.Scope {
	full := dir
	if !filepath.IsAbs(full) {
		full = filepath.ToSlash(filepath.Join(root, dir))
	}
	return model.Scope{
		"directoryPath":     model.String(template.Escape(dir)),
		"fullDirectoryPath": model.String(template.Escape(full)),
		"directoryName":     model.String(template.Escape(filepath.Base(dir))),
	}
}

type pathParts struct {
	path    string
	dir     string
	dirName string
	base    string
	stem    string
	ext     string
}

func splitPath(p string) pathParts {
	p = filepath.ToSlash(p)
	dir := filepath.ToSlash(filepath.Dir(p))
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	return pathParts{
		path:    p,
		dir:     dir,
		dirName: filepath.Base(dir),
		base:    base,
		stem:    strings.TrimSuffix(base, ext),
		ext:     strings.TrimPrefix(ext, "."),
	}
}
