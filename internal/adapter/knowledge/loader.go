// Package knowledge loads culture-tagged etiquette passages from disk.
//
// YAML files hold a list of passages:
//
//	passages:
//	  - culture: japanese
//	    category: greetings
//	    content: Bowing is essential.
//
// A PDF file contributes one passage whose culture is the first directory
// below the knowledge root and whose category is the file name, so
// german/business.pdf becomes {german, business, <text>}.
package knowledge

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
	"gopkg.in/yaml.v3"

	"cultura/internal/adapter/fs"
	"cultura/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

type passageFile struct {
	Passages []domain.KnowledgePassage `yaml:"passages"`
}

type Loader struct {
	walker *fs.Walker
}

func NewLoader(includes, excludes []string) *Loader {
	return &Loader{walker: fs.NewWalker(includes, excludes)}
}

// Load reads every matching file under dir in path order. An empty dir
// selects the built-in corpus.
func (l *Loader) Load(dir string) ([]domain.KnowledgePassage, error) {
	if dir == "" {
		return Seed()
	}

	files, err := l.walker.Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to walk knowledge dir: %w", err)
	}

	var passages []domain.KnowledgePassage
	for _, f := range files {
		var loaded []domain.KnowledgePassage
		switch strings.ToLower(path.Ext(f.RelPath)) {
		case ".yaml", ".yml":
			loaded, err = loadYAMLFile(f.Path)
		case ".pdf":
			loaded, err = loadPDF(f)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.RelPath, err)
		}
		passages = append(passages, loaded...)
	}

	if len(passages) == 0 {
		return Seed()
	}
	return passages, nil
}

// Seed returns the built-in passages.
func Seed() ([]domain.KnowledgePassage, error) {
	return parseYAML(seedYAML)
}

func loadYAMLFile(filePath string) ([]domain.KnowledgePassage, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return parseYAML(data)
}

func parseYAML(data []byte) ([]domain.KnowledgePassage, error) {
	var file passageFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid passage file: %w", err)
	}

	passages := make([]domain.KnowledgePassage, 0, len(file.Passages))
	for i, p := range file.Passages {
		p.Culture = normalizeCulture(p.Culture)
		p.Content = strings.TrimSpace(p.Content)
		if p.Culture == "" {
			return nil, fmt.Errorf("passage %d has no culture", i)
		}
		if p.Content == "" {
			continue
		}
		passages = append(passages, p)
	}
	return passages, nil
}

func loadPDF(f fs.FileInfo) ([]domain.KnowledgePassage, error) {
	culture, _, found := strings.Cut(f.RelPath, "/")
	if !found {
		return nil, fmt.Errorf("pdf guides must live in a culture directory")
	}

	text, err := extractPDFText(f.Path)
	if err != nil {
		return nil, err
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil, nil
	}

	category := strings.TrimSuffix(path.Base(f.RelPath), path.Ext(f.RelPath))
	return []domain.KnowledgePassage{{
		Culture:  normalizeCulture(culture),
		Category: category,
		Content:  text,
	}}, nil
}

func extractPDFText(filePath string) (string, error) {
	file, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer file.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return buf.String(), nil
}

func normalizeCulture(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
