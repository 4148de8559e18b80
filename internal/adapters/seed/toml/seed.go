// Package toml loads seed-account files for the demo CLI's bulk login.
package toml

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wfkpk/authgate/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

type accountSchema struct {
	Name      string `toml:"name"`
	Email     string `toml:"email"`
	AvatarURL string `toml:"avatar_url,omitempty"`
}

// Load reads a seed file and returns the account descriptors to log in.
// Entries must name at least an email or a display name; the service assigns
// identifiers and tokens during login.
func Load(path string) ([]domain.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if file.Version > currentSchemaVersion {
		return nil, fmt.Errorf("unsupported seed schema version %d (current %d)", file.Version, currentSchemaVersion)
	}

	accounts := make([]domain.Account, 0, len(file.Accounts))
	for i, entry := range file.Accounts {
		if entry.Email == "" && entry.Name == "" {
			return nil, fmt.Errorf("seed entry %d has neither email nor name", i)
		}
		accounts = append(accounts, domain.Account{
			Name:      entry.Name,
			Email:     entry.Email,
			AvatarURL: entry.AvatarURL,
		})
	}

	return accounts, nil
}
