// Package classify sorts commits into changelog categories by matching their messages
// against a fixed keyword table.
package classify

import (
	"regexp"
	"strings"

	"github.com/bral/git-bump-go/internal/types"
)

// MaxFeatures caps the feature list rendered into the readme.
const MaxFeatures = 10

// Rule binds a category to its keyword pattern and display glyph.
type Rule struct {
	Category types.CommitCategory
	Pattern  *regexp.Regexp
	Glyph    string
}

// DefaultRules is the category table in declaration order. Patterns are case-insensitive
// and unanchored, so "readme" also matches inside "readmes".
var DefaultRules = []Rule{
	{types.CategoryAdded, regexp.MustCompile(`(?i)add|feat|new|feature`), "✨"},
	{types.CategoryChanged, regexp.MustCompile(`(?i)change|update|modify|refactor|perf|improvement`), "🔄"},
	{types.CategoryFixed, regexp.MustCompile(`(?i)fix|bug|repair|solve|resolve`), "🐛"},
	{types.CategoryRemoved, regexp.MustCompile(`(?i)remove|delete|rm|drop`), "🗑️"},
	{types.CategorySecurity, regexp.MustCompile(`(?i)security|sec|cve|vuln|protect`), "🔒"},
	{types.CategoryTests, regexp.MustCompile(`(?i)test|spec|check|assert|validate`), "🧪"},
	{types.CategoryDocumentation, regexp.MustCompile(`(?i)doc|docs|readme|comment`), "📚"},
	{types.CategoryBuild, regexp.MustCompile(`(?i)build|ci|cd|workflow|pipeline`), "🔨"},
	{types.CategoryConfiguration, regexp.MustCompile(`(?i)config|conf|cfg|settings|env`), "⚙️"},
}

// Classification maps each matched category to its entries in input order. Categories
// with no entries are absent.
type Classification map[types.CommitCategory][]types.ClassifiedEntry

// Section is one non-empty category ready for rendering.
type Section struct {
	Category types.CommitCategory
	Glyph    string
	Entries  []types.ClassifiedEntry
}

// FeatureList is the readme's feature bullet list.
type FeatureList struct {
	Items     []string
	Truncated bool // more Added entries existed than MaxFeatures
}

// Classifier applies a rule table to commits.
type Classifier struct {
	rules []Rule
}

// New returns a Classifier using DefaultRules.
func New() *Classifier {
	return &Classifier{rules: DefaultRules}
}

// Classify evaluates every category independently against every commit, so a commit can
// appear under several categories, each with its own residual.
func (c *Classifier) Classify(commits []types.CommitRecord) Classification {
	result := make(Classification)
	for _, rule := range c.rules {
		for _, commit := range commits {
			loc := rule.Pattern.FindStringIndex(commit.Message)
			if loc == nil {
				continue
			}
			result[rule.Category] = append(result[rule.Category], types.ClassifiedEntry{
				Category: rule.Category,
				Commit:   commit,
				Residual: residual(commit.Message, loc),
			})
		}
	}
	return result
}

// Features returns the Added residuals, newest first, capped at MaxFeatures.
func (c *Classifier) Features(commits []types.CommitRecord) FeatureList {
	return c.Classify(commits).Features()
}

// Features returns the Added residuals of an existing classification.
func (cl Classification) Features() FeatureList {
	added := cl[types.CategoryAdded]
	list := FeatureList{Truncated: len(added) > MaxFeatures}
	for i, e := range added {
		if i == MaxFeatures {
			break
		}
		list.Items = append(list.Items, e.Residual)
	}
	return list
}

// Sections returns the non-empty categories in table order.
func (cl Classification) Sections() []Section {
	var sections []Section
	for _, rule := range DefaultRules {
		if entries := cl[rule.Category]; len(entries) > 0 {
			sections = append(sections, Section{Category: rule.Category, Glyph: rule.Glyph, Entries: entries})
		}
	}
	return sections
}

// Counts returns the number of entries per category.
func (cl Classification) Counts() map[types.CommitCategory]int {
	counts := make(map[types.CommitCategory]int, len(cl))
	for cat, entries := range cl {
		counts[cat] = len(entries)
	}
	return counts
}

// Glyph returns the display glyph for category, or "" when unknown.
func Glyph(category types.CommitCategory) string {
	for _, rule := range DefaultRules {
		if rule.Category == category {
			return rule.Glyph
		}
	}
	return ""
}

// residual removes the matched span, joins the text around it with a single space and
// trims conventional-commit separators from both ends. Spacing elsewhere is kept.
func residual(message string, loc []int) string {
	before := strings.TrimRight(message[:loc[0]], " \t")
	after := strings.TrimLeft(message[loc[1]:], " \t")
	stripped := before + after
	if before != "" && after != "" {
		stripped = before + " " + after
	}
	return strings.Trim(stripped, " \t\r\n:-!")
}
