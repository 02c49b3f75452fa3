package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/onsi/gomega"
)

// WriteConfigYAML writes a configuration pointing at the fake GitHub with the given products section.
// Retries are kept short so failure scenarios finish quickly.
func WriteConfigYAML(dir, githubURL, products string) string {
	content := fmt.Sprintf(`upstream:
  baseUrl: %s
  timeout: 2s
  retry:
    maxTries: 2
    initialInterval: 10ms
cache:
  ttl: 1h
telemetry:
  enabled: true
  metrics:
    enabled: true
    exporters: [prometheus]
products:
%s`, githubURL, indent(strings.TrimSpace(products), "  "))

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	return path
}

// WriteFile writes a file below dir and returns its path
func WriteFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	gomega.Expect(os.MkdirAll(filepath.Dir(path), 0750)).To(gomega.Succeed())
	gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	return path
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
