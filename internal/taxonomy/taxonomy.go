// Package taxonomy holds the controlled vocabulary of the knowledge hub:
// departments and their sub-areas, the shared sub-folder layout every
// sub-area uses, the allowed content types and the tag list.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_taxonomy.yaml
var defaultTaxonomy []byte

var ErrUnknownFolder = errors.New("folder path is not part of the taxonomy")

type SubArea struct {
	Name       string `yaml:"name" json:"name"`
	NotebookID string `yaml:"notebook_id" json:"notebook_id"`
}

type Department struct {
	Code     string    `yaml:"code" json:"code"`
	Folder   string    `yaml:"folder" json:"folder"`
	SubAreas []SubArea `yaml:"sub_areas" json:"sub_areas"`
}

type Taxonomy struct {
	SubFolderSchema []string     `yaml:"sub_folder_schema" json:"sub_folder_schema"`
	ContentTypes    []string     `yaml:"content_types" json:"content_types"`
	Tags            []string     `yaml:"tags" json:"tags"`
	Departments     []Department `yaml:"departments" json:"departments"`

	byCode   map[string]Department
	byFolder map[string]Department
	tags     map[string]struct{}
	types    map[string]struct{}
}

// Location is a folder path resolved against the taxonomy.
type Location struct {
	Department string `json:"department"`
	SubArea    string `json:"sub_area"`
	SubFolder  string `json:"sub_folder,omitempty"`
	NotebookID string `json:"notebook_id"`
}

// Load reads a taxonomy file, falling back to the embedded default when path is empty.
func Load(path string) (*Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultTaxonomy)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file failed: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode taxonomy failed: %w", err)
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Taxonomy) index() error {
	if len(t.Departments) == 0 {
		return errors.New("taxonomy has no departments")
	}
	t.byCode = make(map[string]Department, len(t.Departments))
	t.byFolder = make(map[string]Department, len(t.Departments))
	for _, d := range t.Departments {
		if d.Code == "" || d.Folder == "" {
			return fmt.Errorf("department %q: code and folder are required", d.Code)
		}
		if _, dup := t.byCode[d.Code]; dup {
			return fmt.Errorf("duplicate department code %q", d.Code)
		}
		t.byCode[d.Code] = d
		t.byFolder[d.Folder] = d
	}
	t.tags = make(map[string]struct{}, len(t.Tags))
	for _, tag := range t.Tags {
		t.tags[strings.ToLower(tag)] = struct{}{}
	}
	t.types = make(map[string]struct{}, len(t.ContentTypes))
	for _, ct := range t.ContentTypes {
		t.types[ct] = struct{}{}
	}
	return nil
}

func (t *Taxonomy) HasTag(tag string) bool {
	_, ok := t.tags[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

func (t *Taxonomy) HasContentType(contentType string) bool {
	_, ok := t.types[contentType]
	return ok
}

func (t *Taxonomy) Department(code string) (Department, bool) {
	d, ok := t.byCode[code]
	return d, ok
}

// Resolve maps "<department folder>/<sub-area>[/<sub-folder>]" to a Location.
func (t *Taxonomy) Resolve(folderPath string) (Location, error) {
	parts := strings.Split(strings.Trim(folderPath, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return Location{}, ErrUnknownFolder
	}
	dept, ok := t.byFolder[parts[0]]
	if !ok {
		return Location{}, ErrUnknownFolder
	}
	for _, sa := range dept.SubAreas {
		if sa.Name != parts[1] {
			continue
		}
		loc := Location{Department: dept.Code, SubArea: sa.Name, NotebookID: sa.NotebookID}
		if len(parts) == 3 {
			if !contains(t.SubFolderSchema, parts[2]) {
				return Location{}, ErrUnknownFolder
			}
			loc.SubFolder = parts[2]
		}
		return loc, nil
	}
	return Location{}, ErrUnknownFolder
}

// NotebookFor returns the notebook mirroring a department sub-area, or "".
func (t *Taxonomy) NotebookFor(department, subArea string) string {
	dept, ok := t.byCode[department]
	if !ok {
		return ""
	}
	for _, sa := range dept.SubAreas {
		if sa.Name == subArea {
			return sa.NotebookID
		}
	}
	return ""
}

// FolderPaths instantiates the shared sub-folder schema for every sub-area of a department.
func (t *Taxonomy) FolderPaths(department string) []string {
	dept, ok := t.byCode[department]
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(dept.SubAreas)*len(t.SubFolderSchema))
	for _, sa := range dept.SubAreas {
		for _, sub := range t.SubFolderSchema {
			paths = append(paths, dept.Folder+"/"+sa.Name+"/"+sub)
		}
	}
	sort.Strings(paths)
	return paths
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
