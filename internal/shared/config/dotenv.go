package config

import (
	"bufio"
	"os"
	"strings"
)

// loadEnvFiles applies KEY=VALUE pairs from the given files, skipping keys
// already present in the process environment. Missing files are ignored.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			key, val, ok := parseEnvLine(scanner.Text())
			if !ok {
				continue
			}
			if existing, set := os.LookupEnv(key); set && existing != "" {
				continue
			}
			_ = os.Setenv(key, val)
		}
		_ = f.Close()
	}
}

func parseEnvLine(raw string) (string, string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, val, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	val = strings.TrimSpace(val)
	val = strings.Trim(val, `"'`)
	return key, val, true
}
