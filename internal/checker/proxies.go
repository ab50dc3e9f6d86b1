package checker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"
)

// LoadProxies reads a JSON array of proxy URLs. A missing file is created
// holding an empty list.
func LoadProxies(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("create proxy list: %w", err)
		}
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}

	var proxies []string
	if err := json.Unmarshal(data, &proxies); err != nil {
		return nil, fmt.Errorf("proxy list %s must be a JSON array of strings: %w", path, err)
	}

	if proxies == nil {
		return nil, fmt.Errorf("proxy list %s must be a JSON array of strings", path)
	}

	return proxies, nil
}
