// Package portfolio serves the static content of the site: the projects
// gallery and the skill inventory.
package portfolio

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryAll selects every skill.
const CategoryAll = "All"

// Categories lists the skill filters in display order.
var Categories = []string{CategoryAll, "Languages", "Frameworks/Libraries", "Tools/Other"}

//go:embed content.yaml
var defaultContent []byte

// Project is one card in the projects gallery.
type Project struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Tech        []string `yaml:"tech" json:"tech"`
	Date        string   `yaml:"date" json:"date"`
	Description string   `yaml:"description" json:"desc"`
	Image       string   `yaml:"image" json:"image"`
	IsVideo     bool     `yaml:"isVideo" json:"isVideo"`
	GitHub      string   `yaml:"github" json:"github,omitempty"`
	Devpost     string   `yaml:"devpost" json:"devpost,omitempty"`
}

// Skill is one key in the skills grid.
type Skill struct {
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type" json:"type"`
	Color string `yaml:"color" json:"color"`
	Icon  string `yaml:"icon" json:"icon"`
}

// Source hands out the current catalog. Both *Catalog and *Watcher implement it.
type Source interface {
	Catalog() *Catalog
}

// Catalog is an immutable snapshot of the site content.
type Catalog struct {
	projects []Project
	skills   []Skill
}

type contentYAML struct {
	Projects []Project `yaml:"projects"`
	Skills   []Skill   `yaml:"skills"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultContent)
	if err != nil {
		panic(fmt.Sprintf("portfolio: embedded content is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw contentYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}

	for i, p := range raw.Projects {
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("portfolio: project %d has no title", i)
		}
	}
	for i, s := range raw.Skills {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("portfolio: skill %d has no name", i)
		}
		if strings.TrimSpace(s.Type) == "" {
			return nil, fmt.Errorf("portfolio: skill %q has no type", s.Name)
		}
	}
	if len(raw.Projects) == 0 && len(raw.Skills) == 0 {
		return nil, errors.New("portfolio: content is empty")
	}

	return &Catalog{projects: raw.Projects, skills: raw.Skills}, nil
}

// Catalog returns c, so a fixed catalog can serve as a Source.
func (c *Catalog) Catalog() *Catalog {
	return c
}

// Projects returns the projects in display order.
func (c *Catalog) Projects() []Project {
	out := make([]Project, len(c.projects))
	copy(out, c.projects)
	return out
}

// FilterSkills returns the skills of the given category in inventory order.
// An empty category or CategoryAll returns every skill.
func (c *Catalog) FilterSkills(category string) []Skill {
	if category == "" || category == CategoryAll {
		out := make([]Skill, len(c.skills))
		copy(out, c.skills)
		return out
	}

	out := []Skill{}
	for _, s := range c.skills {
		if s.Type == category {
			out = append(out, s)
		}
	}
	return out
}
