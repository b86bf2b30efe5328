package merge

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lyzr/genstore/common/models"
)

// ProjectSchema is a minimal structural summary of an existing file set.
// The upstream code-generation collaborator feeds it into regeneration
// prompts so iterations are constructed with knowledge of the structure
// they extend.
type ProjectSchema struct {
	Entities  []string `json:"entities"`
	Endpoints []string `json:"endpoints"`
	Files     []string `json:"files"`
}

var (
	pyClass    = regexp.MustCompile(`(?m)^class\s+([A-Za-z_]\w*)`)
	pyEndpoint = regexp.MustCompile(`@(?:app|router)\.(?:get|post|put|delete|patch)\(\s*["']([^"']+)`)
	goStruct   = regexp.MustCompile(`(?m)^type\s+([A-Za-z_]\w*)\s+struct`)
	goEndpoint = regexp.MustCompile(`\.(?:GET|POST|PUT|DELETE|PATCH)\(\s*"([^"]+)"`)
	tsClass    = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:class|interface)\s+([A-Za-z_]\w*)`)
	tsEndpoint = regexp.MustCompile(`(?:app|router)\.(?:get|post|put|delete|patch)\(\s*["'` + "`" + `]([^"'` + "`" + `]+)`)
)

// DeriveSchema scans a file set for entity and endpoint names. Only
// shallow, language-agnostic patterns are used; the result is prompt
// context, not a parse tree.
func DeriveSchema(files models.FileSet) *ProjectSchema {
	entities := map[string]struct{}{}
	endpoints := map[string]struct{}{}

	for path, content := range files {
		text := string(content)

		switch {
		case strings.HasSuffix(path, ".py"):
			collect(entities, pyClass, text)
			collect(endpoints, pyEndpoint, text)
		case strings.HasSuffix(path, ".go"):
			collect(entities, goStruct, text)
			collect(endpoints, goEndpoint, text)
		case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".tsx"),
			strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".jsx"):
			collect(entities, tsClass, text)
			collect(endpoints, tsEndpoint, text)
		}
	}

	return &ProjectSchema{
		Entities:  sortedKeys(entities),
		Endpoints: sortedKeys(endpoints),
		Files:     files.Paths(),
	}
}

func collect(into map[string]struct{}, re *regexp.Regexp, text string) {
	for _, match := range re.FindAllStringSubmatch(text, -1) {
		into[match[1]] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
