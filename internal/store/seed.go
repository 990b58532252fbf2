package store

import (
	"bufio"
	"os"
	"strings"

	"dailyspend/internal/core"
)

// SeedFileName is looked up in a backend's data directory.
const SeedFileName = "seed_categories.txt"

// ReadSeedFile parses "Name,#color" lines. Blank lines and lines starting
// with '#' are skipped, as are duplicate names. A missing file yields nil.
func ReadSeedFile(path string) []core.CategoryInput {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	seen := map[string]struct{}{}
	var out []core.CategoryInput
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, color, ok := strings.Cut(line, ",")
		name, color = strings.TrimSpace(name), strings.TrimSpace(color)
		if !ok || name == "" || color == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, core.CategoryInput{Name: name, Color: color})
	}
	return out
}

// SeedOrDefault returns the seeds found at path, or the default categories.
func SeedOrDefault(path string) []core.CategoryInput {
	if seeds := ReadSeedFile(path); len(seeds) > 0 {
		return seeds
	}
	return core.DefaultCategories()
}
