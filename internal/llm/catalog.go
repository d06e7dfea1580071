package llm

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saravenpi/chatdeck/internal/models"
)

const DefaultChatModel = "gpt-4o"

var ErrUnknownModel = errors.New("unknown model")

// DefaultModels is the built-in catalog offered in the model picker.
var DefaultModels = []models.ChatModel{
	{
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Description: "OpenAI's most advanced multimodal model with vision and text capabilities",
	},
	{
		ID:          "gpt-4o-mini",
		Name:        "GPT-4o Mini",
		Description: "OpenAI's faster and more cost-effective model with good performance",
	},
}

// Catalog is the set of models a user can chat with.
type Catalog struct {
	Models  []models.ChatModel `yaml:"models"`
	Default string             `yaml:"default"`
}

func DefaultCatalog() Catalog {
	return Catalog{Models: append([]models.ChatModel(nil), DefaultModels...), Default: DefaultChatModel}
}

// LoadCatalog reads a catalog from a YAML file. A missing file yields the
// built-in catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalog(), nil
		}
		return Catalog{}, fmt.Errorf("failed to read models file: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse models file: %w", err)
	}
	if len(c.Models) == 0 {
		return Catalog{}, fmt.Errorf("models file %s lists no models", path)
	}
	for _, m := range c.Models {
		if m.ID == "" {
			return Catalog{}, fmt.Errorf("models file %s has a model without id", path)
		}
	}
	if c.Default == "" {
		c.Default = c.Models[0].ID
	}
	if _, ok := c.Find(c.Default); !ok {
		return Catalog{}, fmt.Errorf("default model %q: %w", c.Default, ErrUnknownModel)
	}
	return c, nil
}

func (c Catalog) Find(id string) (models.ChatModel, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return models.ChatModel{}, false
}

// Pick returns preferred when the catalog has it, the default otherwise.
func (c Catalog) Pick(preferred string) string {
	if _, ok := c.Find(preferred); ok {
		return preferred
	}
	return c.Default
}
