// Command generate_index builds the release download page: README.md
// rendered to HTML with its Installation section replaced by links to the
// archives found in the dist directory.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dist-dir>\n", os.Args[0])
		os.Exit(1)
	}
	if err := run("README.md", os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "generate_index: %v\n", err)
		os.Exit(1)
	}
}

func run(readmePath, distDir string) error {
	readme, err := os.ReadFile(readmePath)
	if err != nil {
		return fmt.Errorf("read readme: %w", err)
	}
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return fmt.Errorf("read dist: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	indexPath := filepath.Join(distDir, "index.html")
	f, err := os.Create(indexPath)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := writePage(f, readme, names); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Generated %s\n", indexPath)
	return nil
}

func writePage(w io.Writer, readme []byte, archives []string) error {
	body := replaceInstallation(renderMarkdown(readme), downloadsTable(detectVersion(archives), archives))
	_, err := io.WriteString(w, pageHeader+body+pageFooter)
	return err
}

func renderMarkdown(src []byte) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.Render(p.Parse(src), r))
}

// Archive names follow lingo_VERSION_OS_ARCH.ext.
var archivePattern = regexp.MustCompile(`^lingo_(.+)_(Darwin|Linux|Windows)_(arm64|x86_64)\.(tar\.gz|zip)$`)

func detectVersion(archives []string) string {
	for _, name := range archives {
		if m := archivePattern.FindStringSubmatch(name); m != nil {
			return m[1]
		}
	}
	return "unknown"
}

var platformNames = map[string]string{
	"Darwin_arm64":   "macOS (Apple Silicon)",
	"Darwin_x86_64":  "macOS (Intel)",
	"Linux_arm64":    "Linux (ARM64)",
	"Linux_x86_64":   "Linux (x86_64)",
	"Windows_arm64":  "Windows (ARM64)",
	"Windows_x86_64": "Windows (x86_64)",
}

func downloadsTable(version string, archives []string) string {
	type row struct{ platform, archive string }
	var rows []row
	seen := map[string]bool{}
	for _, name := range archives {
		m := archivePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		key := m[2] + "_" + m[3]
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, row{platform: platformNames[key], archive: name})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].platform < rows[j].platform })

	var sb strings.Builder
	sb.WriteString("<div class=\"downloads\">\n<h2>Downloads</h2>\n")
	fmt.Fprintf(&sb, "<h3>%s</h3>\n<table class=\"download-table\">\n", version)
	for _, r := range rows {
		fmt.Fprintf(&sb, "<tr><td class=\"platform-name\">%s</td><td><a href=\"%s\">download</a></td></tr>\n", r.platform, r.archive)
	}
	sb.WriteString("</table>\n</div>\n")
	return sb.String()
}

// replaceInstallation swaps the README's Installation section for the
// downloads table. Pages without that section are returned unchanged.
func replaceInstallation(page, downloads string) string {
	start := strings.Index(page, `<h2 id="installation">`)
	if start == -1 {
		return page
	}
	next := strings.Index(page[start+1:], `<h2 id="`)
	if next == -1 {
		return page
	}
	next += start + 1
	return page[:start] + `<h2 id="installation">Installation</h2>
` + downloads + `<p>Extract the archive and put the binary on your PATH:</p>
<pre><code>tar -xzf lingo_*.tar.gz
sudo mv lingo /usr/local/bin/
</code></pre>
` + page[next:]
}

const pageHeader = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>lingo - thesaurus tree filter</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; line-height: 1.6; }
pre { background: #1e293b; color: #e2e8f0; padding: 16px; border-radius: 6px; overflow-x: auto; }
.downloads { background: #eff6ff; padding: 20px; border-radius: 8px; border-left: 4px solid #2563eb; }
.download-table td { padding: 6px 8px; }
.platform-name { font-weight: 500; width: 220px; }
</style>
</head>
<body>
`

const pageFooter = `</body>
</html>
`
