package bot

import (
	"fmt"

	"github.com/joho/godotenv"
)

// Credentials are the two bot accounts: the source file repository and
// the destination wiki. They live in a git-ignored env-style file, never
// in the config.
type Credentials struct {
	SourceUsername string
	SourcePassword string
	WikiUsername   string
	WikiPassword   string
}

// LoadCredentials reads the env-style credentials file at path. A
// missing file or variable is a startup fault; there are no silent
// defaults for accounts.
func LoadCredentials(path string) (*Credentials, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w (copy .env.example to %s and fill in both bot accounts)", path, err, path)
	}
	get := func(key string) (string, error) {
		v := vals[key]
		if v == "" {
			return "", fmt.Errorf("credentials %s: %s is missing (set it in the credentials file)", path, key)
		}
		return v, nil
	}
	var creds Credentials
	if creds.SourceUsername, err = get("NCCOMMONS_USERNAME"); err != nil {
		return nil, err
	}
	if creds.SourcePassword, err = get("NCCOMMONS_PASSWORD"); err != nil {
		return nil, err
	}
	if creds.WikiUsername, err = get("WIKIPEDIA_USERNAME"); err != nil {
		return nil, err
	}
	if creds.WikiPassword, err = get("WIKIPEDIA_PASSWORD"); err != nil {
		return nil, err
	}
	return &creds, nil
}
