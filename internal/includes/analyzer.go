package includes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Analyzer indexes candidate include directories and resolves which of
// them a translation unit transitively needs. One analyzer is built per
// build step so reruns never observe stale filesystem state.
//
// All methods are safe for concurrent use; a single mutex serialises
// indexing and resolution so racing file tasks cannot observe a
// half-built index.
type Analyzer struct {
	mu   sync.Mutex
	root string

	// fileLocations maps a basename to every absolute path it was seen
	// at while indexing enlisted directories.
	fileLocations map[string]map[string]struct{}

	// includePaths holds enlisted directories in insertion order. A
	// directory inside the workspace root is stored workspace-relative.
	includePaths []string
	enlisted     map[string]struct{}

	// fileRequiredPaths memoises per-file results; a nil entry records a
	// file known to be missing. Absent means not yet analysed.
	fileRequiredPaths map[string]map[string]struct{}

	// fileDependencies records the headers each analysed file includes.
	fileDependencies map[string]map[string]struct{}

	// analysing guards against #include cycles during resolution.
	analysing map[string]struct{}
}

// New builds an empty analyzer for the workspace root.
func New(root string) *Analyzer {
	return &Analyzer{
		root:              root,
		fileLocations:     map[string]map[string]struct{}{},
		enlisted:          map[string]struct{}{},
		fileRequiredPaths: map[string]map[string]struct{}{},
		fileDependencies:  map[string]map[string]struct{}{},
		analysing:         map[string]struct{}{},
	}
}

// Enlist registers candidate include directories, indexing the files each
// one directly contains. Directories are kept in first-enlistment order;
// re-enlisting is a no-op. A directory that does not exist is skipped, as
// include path lists routinely name platform directories absent on the
// current host.
func (a *Analyzer) Enlist(dirs []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, dir := range dirs {
		stored := a.storedForm(dir)
		if _, ok := a.enlisted[stored]; ok {
			continue
		}
		abs := a.absPath(stored)
		entries, err := os.ReadDir(abs)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("indexing include directory %q: %w", dir, err)
		}
		a.enlisted[stored] = struct{}{}
		a.includePaths = append(a.includePaths, stored)
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if a.fileLocations[name] == nil {
				a.fileLocations[name] = map[string]struct{}{}
			}
			a.fileLocations[name][filepath.Join(abs, name)] = struct{}{}
		}
	}
	return nil
}

// GetPaths returns the subset of enlisted include directories required by
// file and its transitive includes, ordered by enlistment. found is false
// when the seed file itself does not exist. Results are memoised.
func (a *Analyzer) GetPaths(location, file string) (paths []string, found bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(location, file)
	}
	needed, found := a.analyse(abs)
	if !found {
		return nil, false, nil
	}
	for _, ip := range a.includePaths {
		if _, ok := needed[ip]; ok {
			paths = append(paths, ip)
		}
	}
	return paths, true, nil
}

// analyse resolves one file, recursing into its includes. The caller
// holds the mutex.
func (a *Analyzer) analyse(abs string) (map[string]struct{}, bool) {
	if needed, ok := a.fileRequiredPaths[abs]; ok {
		return needed, needed != nil
	}
	if _, busy := a.analysing[abs]; busy {
		// Mutually-including headers contribute nothing extra to the
		// file currently on the stack.
		return map[string]struct{}{}, true
	}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		a.fileRequiredPaths[abs] = nil
		return nil, false
	}
	a.analysing[abs] = struct{}{}
	defer delete(a.analysing, abs)

	needed := map[string]struct{}{}
	deps := map[string]struct{}{}
	names, err := scanIncludes(abs)
	if err != nil {
		// Unreadable content over-approximates to "needs nothing".
		a.fileRequiredPaths[abs] = needed
		return needed, true
	}
	dir := filepath.Dir(abs)
	for _, name := range names {
		depAbs, viaPath, ok := a.findInclFile(dir, name)
		if !ok {
			continue
		}
		if viaPath != "" {
			needed[viaPath] = struct{}{}
		}
		deps[depAbs] = struct{}{}
		if sub, found := a.analyse(depAbs); found {
			for ip := range sub {
				needed[ip] = struct{}{}
			}
		}
	}
	a.fileRequiredPaths[abs] = needed
	a.fileDependencies[abs] = deps
	return needed, true
}

// findInclFile locates one included name relative to the including file's
// directory. It returns the header's absolute path and, when the match
// came through an enlisted directory, that directory in its stored form.
// ok is false when no candidate location satisfies the include.
func (a *Analyzer) findInclFile(location, name string) (string, string, bool) {
	same := filepath.Join(location, name)
	if info, err := os.Stat(same); err == nil && !info.IsDir() {
		return same, "", true
	}
	candidates := a.fileLocations[filepath.Base(name)]
	if len(candidates) == 0 {
		return "", "", false
	}
	for _, ip := range a.includePaths {
		p := filepath.Join(a.absPath(ip), name)
		if _, ok := candidates[p]; ok {
			return p, ip, true
		}
	}
	return "", "", false
}

// Dependencies returns the headers file was seen to include, or nil when
// the file has not been analysed.
func (a *Analyzer) Dependencies(file string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for dep := range a.fileDependencies[file] {
		out = append(out, dep)
	}
	return out
}

func (a *Analyzer) absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.root, p)
}

// storedForm normalises an enlisted directory: absolute paths inside the
// workspace root become workspace-relative so matching is consistent
// however the caller spelled them.
func (a *Analyzer) storedForm(dir string) string {
	if !filepath.IsAbs(dir) {
		return filepath.ToSlash(filepath.Clean(dir))
	}
	rel, err := filepath.Rel(a.root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Clean(dir)
	}
	return filepath.ToSlash(rel)
}
