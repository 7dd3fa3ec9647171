package k6

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/redhat/tempo-loadgen/framework/concurrent"
)

// testRunTemplate is the static TestRun manifest the per-service values are
// interpolated into. It mirrors what the k6 operator expects in
// k6.io/v1alpha1.
const testRunTemplate = `apiVersion: k6.io/v1alpha1
kind: TestRun
metadata:
  name: {{ .Name }}
  namespace: {{ .Namespace }}
  labels:
{{- range $k, $v := .Labels }}
    {{ $k }}: {{ $v }}
{{- end }}
spec:
  parallelism: {{ .Parallelism }}
  arguments: --tag service={{ .Service }}{{ if .RemoteWriteURL }} -o experimental-prometheus-rw{{ end }}
  script:
    configMap:
      name: ` + ScriptsConfigMap + `
      file: ` + ScriptFile + `
  runner:
    metadata:
      labels:
{{- range $k, $v := .Labels }}
        {{ $k }}: {{ $v }}
{{- end }}
    env:
      - name: TARGET_URL
        value: "{{ .TargetURL }}"
      - name: SERVICE
        value: "{{ .Service }}"
      - name: VUS
        value: "{{ .VUs }}"
      - name: DURATION
        value: "{{ .Duration }}"
{{- if gt .Rate 0 }}
      - name: RATE
        value: "{{ .Rate }}"
{{- end }}
{{- if .RemoteWriteURL }}
      - name: K6_PROMETHEUS_RW_SERVER_URL
        value: "{{ .RemoteWriteURL }}"
{{- end }}
`

var testRunTmpl = template.Must(template.New("testrun").Parse(testRunTemplate))

// RenderManifest renders a single TestRun manifest to YAML bytes
func RenderManifest(cfg TestRunConfig) ([]byte, error) {
	if cfg.Name == "" || cfg.Namespace == "" {
		return nil, fmt.Errorf("manifest requires a name and namespace")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.VUs <= 0 {
		cfg.VUs = 1
	}
	if cfg.Duration == "" {
		cfg.Duration = "5m"
	}
	if cfg.Labels == nil {
		cfg.Labels = ManagedLabels("testrun")
	}

	var buf bytes.Buffer
	if err := testRunTmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to render TestRun manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// ManifestFileName returns the on-disk file name for a service's manifest
func ManifestFileName(service string) string {
	return fmt.Sprintf("testrun-%s.yaml", service)
}

// TestRunName returns the TestRun object name for a service
func TestRunName(service string) string {
	return fmt.Sprintf("k6-%s", service)
}

// GenerateOptions control the values rendered into per-service manifests
type GenerateOptions struct {
	// Namespace the TestRuns will be created in
	Namespace string

	// TempoNamespace is where the Tempo stack (and its Services) live
	TempoNamespace string

	// Stack is the TempoStack CR name
	Stack string

	// Parallelism, VUs, Duration and Rate are shared by all rendered manifests
	Parallelism int
	VUs         int
	Duration    string
	Rate        int

	// RemoteWriteURL, when set, makes runners push metrics to Prometheus
	RemoteWriteURL string
}

// GenerateManifests renders one TestRun manifest per backend service into
// outputDir. Existing files are overwritten.
func GenerateManifests(c Clients, outputDir string, opts GenerateOptions) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	err := concurrent.ForEach(Backends, func(b Backend) error {
		cfg := TestRunConfig{
			Name:           TestRunName(b.Component),
			Namespace:      opts.Namespace,
			Service:        b.Component,
			TargetURL:      b.TargetURL(opts.Stack, opts.TempoNamespace),
			Parallelism:    opts.Parallelism,
			VUs:            opts.VUs,
			Duration:       opts.Duration,
			Rate:           opts.Rate,
			RemoteWriteURL: opts.RemoteWriteURL,
		}

		data, err := RenderManifest(cfg)
		if err != nil {
			return fmt.Errorf("service %s: %w", b.Component, err)
		}

		path := filepath.Join(outputDir, ManifestFileName(b.Component))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.Logger().WithField("dir", outputDir).Infof("rendered %d TestRun manifests", len(Backends))
	return nil
}

// LoadManifest reads a rendered TestRun manifest from disk and parses it into
// an unstructured object ready for the dynamic client
func LoadManifest(path string) (*unstructured.Unstructured, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest %s not found (run install first): %w", path, err)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	return ParseManifest(data)
}

// ParseManifest parses TestRun manifest YAML into an unstructured object
func ParseManifest(data []byte) (*unstructured.Unstructured, error) {
	var obj map[string]interface{}
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse TestRun manifest: %w", err)
	}

	u := &unstructured.Unstructured{Object: obj}
	if u.GetKind() != "TestRun" {
		return nil, fmt.Errorf("manifest kind is %q, expected TestRun", u.GetKind())
	}
	if u.GetName() == "" {
		return nil, fmt.Errorf("manifest has no name")
	}

	return u, nil
}
