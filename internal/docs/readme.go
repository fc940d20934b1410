package docs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bral/git-bump-go/internal/classify"
	"github.com/bral/git-bump-go/internal/types"
)

// DefaultDescription is used when no description is configured or detected.
const DefaultDescription = "A project under active development."

// ProjectType selects the install snippet.
type ProjectType string

const (
	ProjectGo      ProjectType = "go"
	ProjectNode    ProjectType = "node"
	ProjectPython  ProjectType = "python"
	ProjectGeneric ProjectType = "generic"
)

// License is the license family detected from a LICENSE file.
type License string

const (
	LicenseNone   License = ""
	LicenseMIT    License = "MIT"
	LicenseApache License = "Apache 2.0"
	LicenseGPL    License = "GPL"
	LicenseOther  License = "other"
)

// ProjectInfo is what can be learned about a project from its directory.
type ProjectInfo struct {
	Name        string
	Description string
	Type        ProjectType
	License     License
}

// DetectProject inspects dir for manifests and a LICENSE file. Unreadable or malformed
// manifests are ignored.
func DetectProject(dir string) ProjectInfo {
	info := ProjectInfo{Type: ProjectGeneric}
	if abs, err := filepath.Abs(dir); err == nil {
		info.Name = filepath.Base(abs)
	}

	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
	switch {
	case exists("go.mod"):
		info.Type = ProjectGo
	case exists("package.json"):
		info.Type = ProjectNode
	case exists("requirements.txt"), exists("pyproject.toml"):
		info.Type = ProjectPython
	}

	info.Description = packageJSONDescription(filepath.Join(dir, "package.json"))
	if info.Description == "" {
		info.Description = pyprojectDescription(filepath.Join(dir, "pyproject.toml"))
	}
	info.License = detectLicense(filepath.Join(dir, "LICENSE"))
	return info
}

func packageJSONDescription(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var pkg struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return strings.TrimSpace(pkg.Description)
}

func pyprojectDescription(path string) string {
	var py struct {
		Project struct {
			Description string `toml:"description"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Description string `toml:"description"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.DecodeFile(path, &py); err != nil {
		return ""
	}
	if d := strings.TrimSpace(py.Project.Description); d != "" {
		return d
	}
	return strings.TrimSpace(py.Tool.Poetry.Description)
}

// Word boundaries keep "permitted" and "submit" from reading as MIT.
var (
	mitPattern    = regexp.MustCompile(`(?i)\bmit\b`)
	apachePattern = regexp.MustCompile(`(?i)\bapache\b`)
	gplPattern    = regexp.MustCompile(`(?i)\b(?:a|l)?gpl\b|general public license`)
)

func detectLicense(path string) License {
	data, err := os.ReadFile(path)
	if err != nil {
		return LicenseNone
	}
	switch {
	case mitPattern.Match(data):
		return LicenseMIT
	case apachePattern.Match(data):
		return LicenseApache
	case gplPattern.Match(data):
		return LicenseGPL
	default:
		return LicenseOther
	}
}

// ReadmeData is everything RenderReadme needs.
type ReadmeData struct {
	Project       ProjectInfo
	Version       types.SemVer
	Features      classify.FeatureList
	ChangelogFile string
}

var installSnippets = map[ProjectType]string{
	ProjectGo: "```bash\n# Build and install\ngo install ./...\n\n# Run the tests\ngo test ./...\n```\n\n",
	ProjectNode: "```bash\n# Install dependencies\nnpm install\n\n" +
		"# Start in development mode\nnpm run dev\n```\n\n",
	ProjectPython: "```bash\n# Create a virtual environment\npython -m venv venv\n\n" +
		"# Activate it\n# Windows:\nvenv\\Scripts\\activate\n# Linux/macOS:\nsource venv/bin/activate\n\n" +
		"# Install dependencies\npip install -r requirements.txt\n```\n\n",
	ProjectGeneric: "Clone the repository and follow the steps below:\n\n" +
		"```bash\ngit clone [REPOSITORY_URL]\ncd [PROJECT_NAME]\n```\n\n",
}

var licenseLines = map[License]string{
	LicenseNone:   "This project does not have a license yet.\n",
	LicenseMIT:    "This project is licensed under the [MIT License](LICENSE).\n",
	LicenseApache: "This project is licensed under the [Apache License 2.0](LICENSE).\n",
	LicenseGPL:    "This project is licensed under the [GPL](LICENSE).\n",
	LicenseOther:  "This project is licensed under the terms in [LICENSE](LICENSE).\n",
}

// RenderReadme renders the project readme.
func RenderReadme(d ReadmeData) string {
	p := d.Project
	description := p.Description
	if description == "" {
		description = DefaultDescription
	}
	changelog := d.ChangelogFile
	if changelog == "" {
		changelog = "CHANGELOG.md"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 📘 %s\n\n", p.Name)
	fmt.Fprintf(&b, "![Version](https://img.shields.io/badge/version-%s-blue)\n", d.Version)
	if p.License == LicenseMIT {
		b.WriteString("![License](https://img.shields.io/badge/license-MIT-green)\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## 📋 About\n%s\n\n", description)

	b.WriteString("## ✨ Features\n\n")
	if len(d.Features.Items) == 0 {
		b.WriteString("- In development...\n")
	}
	for _, f := range d.Features.Items {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	if d.Features.Truncated {
		b.WriteString("- And more...\n")
	}
	b.WriteString("\n")

	b.WriteString("## 🚀 Installation\n\n")
	snippet, ok := installSnippets[p.Type]
	if !ok {
		snippet = installSnippets[ProjectGeneric]
	}
	b.WriteString(snippet)

	fmt.Fprintf(&b, "## 🏷️ Version\n\nCurrent version: **%s**\n\n", d.Version)
	fmt.Fprintf(&b, "## 📝 Version History\n\nSee the [CHANGELOG](%s) for the version history.\n\n", filepath.ToSlash(changelog))
	b.WriteString("## 👥 Contributing\n\nContributions are welcome! Feel free to open issues and pull requests.\n\n")
	b.WriteString("## 📄 License\n\n")
	b.WriteString(licenseLines[p.License])
	return b.String()
}

// PlaceholderReadme is the minimal readme committed when bootstrapping an empty repository.
func PlaceholderReadme(name string) string {
	return fmt.Sprintf("# %s\n\n%s\n", name, DefaultDescription)
}
