package includes

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

var includeRe = regexp.MustCompile(`^#\s*include\s*(?:"([^"]+)"|<([^>]+)>)`)

// scanIncludes extracts the filenames referenced by #include directives in
// the file, ignoring directives buried in // and /* */ comments.
func scanIncludes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var found []string
	inComment := false
	for sc.Scan() {
		var code string
		code, inComment = stripComments(sc.Text(), inComment)
		if name, ok := parseIncludeDirective(code); ok {
			found = append(found, name)
		}
	}
	return found, sc.Err()
}

// stripComments removes comment text from one line, carrying the open
// block-comment state across lines.
func stripComments(line string, inComment bool) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(line) {
		if inComment {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return b.String(), true
			}
			i += end + 2
			inComment = false
			continue
		}
		if strings.HasPrefix(line[i:], "//") {
			return b.String(), false
		}
		if strings.HasPrefix(line[i:], "/*") {
			inComment = true
			i += 2
			continue
		}
		b.WriteByte(line[i])
		i++
	}
	return b.String(), inComment
}

func parseIncludeDirective(code string) (string, bool) {
	m := includeRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}
