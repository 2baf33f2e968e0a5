package advice

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Language is a supported advice language.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Marathi Language = "mr"
)

// NormalizeLanguage maps any unsupported or empty code to English.
func NormalizeLanguage(code string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case Hindi:
		return Hindi
	case Marathi:
		return Marathi
	default:
		return English
	}
}

//go:embed locales/catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Persona   string                  `yaml:"persona"`
	Languages map[string]languageFile `yaml:"languages"`
}

type languageFile struct {
	Apology     string `yaml:"apology"`
	PlanHeading string `yaml:"planHeading"`
	MissingDay  string `yaml:"missingDay"`
	Image       string `yaml:"image"`
	Query       string `yaml:"query"`
}

// Catalog holds the per-language prompt templates. It is built once at
// startup and is safe for concurrent use.
type Catalog struct {
	persona string
	packs   map[Language]languagePack
}

type languagePack struct {
	apology     string
	planHeading string
	missingDay  string
	image       *template.Template
	query       *template.Template
}

// LoadCatalog parses the embedded language catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog builds a catalog from YAML. English is mandatory.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse advice catalog: %w", err)
	}
	if strings.TrimSpace(file.Persona) == "" {
		return nil, fmt.Errorf("advice catalog: persona is empty")
	}
	c := &Catalog{
		persona: strings.TrimSpace(file.Persona),
		packs:   make(map[Language]languagePack, len(file.Languages)),
	}
	for code, lf := range file.Languages {
		lang := Language(code)
		if NormalizeLanguage(code) != lang {
			return nil, fmt.Errorf("advice catalog: unsupported language %q", code)
		}
		pack, err := compilePack(code, lf)
		if err != nil {
			return nil, err
		}
		c.packs[lang] = pack
	}
	if _, ok := c.packs[English]; !ok {
		return nil, fmt.Errorf("advice catalog: english templates missing")
	}
	return c, nil
}

func compilePack(code string, lf languageFile) (languagePack, error) {
	if lf.Apology == "" || lf.PlanHeading == "" || lf.MissingDay == "" {
		return languagePack{}, fmt.Errorf("advice catalog %s: apology, planHeading and missingDay are required", code)
	}
	image, err := template.New(code + ".image").Option("missingkey=error").Parse(lf.Image)
	if err != nil {
		return languagePack{}, fmt.Errorf("advice catalog %s: image template: %w", code, err)
	}
	query, err := template.New(code + ".query").Option("missingkey=error").Parse(lf.Query)
	if err != nil {
		return languagePack{}, fmt.Errorf("advice catalog %s: query template: %w", code, err)
	}
	return languagePack{
		apology:     strings.TrimSpace(lf.Apology),
		planHeading: strings.TrimSpace(lf.PlanHeading),
		missingDay:  strings.TrimSpace(lf.MissingDay),
		image:       image,
		query:       query,
	}, nil
}

// Persona is the system message sent with every prompt.
func (c *Catalog) Persona() string {
	return c.persona
}

// Apology returns the degraded-response text for lang.
func (c *Catalog) Apology(lang Language) string {
	return c.pack(lang).apology
}

// Prompt renders the user prompt for the given context and language.
func (c *Catalog) Prompt(adviceCtx Context, lang Language) (string, error) {
	pack := c.pack(lang)
	tmpl := pack.image
	if adviceCtx.Kind == KindQuery {
		tmpl = pack.query
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, adviceCtx); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(b.String()), nil
}

func (c *Catalog) pack(lang Language) languagePack {
	if p, ok := c.packs[NormalizeLanguage(string(lang))]; ok {
		return p
	}
	return c.packs[English]
}
