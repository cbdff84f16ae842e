package seeder

import (
	"errors"
	"fmt"
	"os"

	"museo-server/shared/models"

	"github.com/ilyakaznacheev/cleanenv"
)

// Catalog describes the museum content and the demo account to create.
type Catalog struct {
	LimeSurveyHost string     `yaml:"lime_survey_host" env:"LIME_SURVEY_HOST"`
	FilesHost      string     `yaml:"files_host" env:"FILES_HOST"`
	HintsPerRoom   int        `yaml:"hints_per_room" env:"SEED_HINTS_PER_ROOM" env-default:"5"`
	Rooms          []RoomSeed `yaml:"rooms"`
	TestUser       UserSeed   `yaml:"test_user"`
}

type RoomSeed struct {
	Name           string                `yaml:"name"`
	Description    string                `yaml:"description"`
	FinalCode      string                `yaml:"final_code"`
	CompletionMode models.CompletionMode `yaml:"completion_mode"`
}

type UserSeed struct {
	Email     string `yaml:"email" env:"SEED_USER_EMAIL"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Password  string `yaml:"password" env:"SEED_USER_PASSWORD"`
}

// DefaultCatalog is the five-room exhibition used when no catalog file is given.
func DefaultCatalog() Catalog {
	return Catalog{
		HintsPerRoom: 5,
		Rooms: []RoomSeed{
			{Name: "Sala 1: El Secreto del Canal", FinalCode: "1881-1904-1914-1999", CompletionMode: models.CompletionModeFinalCode},
			{Name: "Sala 2: Leyendas Panameñas", FinalCode: "Ru-ben-Bla-des-Patria", CompletionMode: models.CompletionModeHintAggregation},
			{Name: "Sala 3: El tesoro verde de Panamá", FinalCode: "F-A-U-N-A", CompletionMode: models.CompletionModeHintAggregation},
			{Name: "Sala 4: Sabores y Colores de Panamá", FinalCode: "9-7-5-3-1", CompletionMode: models.CompletionModeHintAggregation},
			{Name: "Sala 5: Las llaves de la ciudad", FinalCode: "1-3-5-7-9", CompletionMode: models.CompletionModeHintAggregation},
		},
		TestUser: UserSeed{
			Email:     "test@example.com",
			FirstName: "Test",
			LastName:  "User",
			Password:  "secret",
		},
	}
}

// LoadCatalog reads a YAML catalog; environment variables override its hosts
// and test-user credentials. An empty or missing path yields DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			cat = Catalog{}
			if err := cleanenv.ReadConfig(path, &cat); err != nil {
				return nil, fmt.Errorf("read catalog %s: %w", path, err)
			}
			return &cat, cat.Validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat catalog %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(&cat); err != nil {
		return nil, fmt.Errorf("read catalog env: %w", err)
	}
	return &cat, cat.Validate()
}

func (c *Catalog) Validate() error {
	if len(c.Rooms) == 0 {
		return errors.New("catalog has no rooms")
	}
	if c.HintsPerRoom < 0 {
		return fmt.Errorf("hints_per_room must not be negative, got %d", c.HintsPerRoom)
	}
	seen := make(map[string]bool, len(c.Rooms))
	for i, r := range c.Rooms {
		if r.Name == "" {
			return fmt.Errorf("room %d has no name", i+1)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate room name %q", r.Name)
		}
		seen[r.Name] = true
		if !r.CompletionMode.Valid() {
			return fmt.Errorf("room %q: unknown completion_mode %q", r.Name, r.CompletionMode)
		}
		if r.CompletionMode.AllowsFinalCode() && r.FinalCode == "" {
			return fmt.Errorf("room %q accepts a final code but has none", r.Name)
		}
	}
	if c.TestUser.Email == "" || c.TestUser.Password == "" {
		return errors.New("test_user needs an email and a password")
	}
	return nil
}
