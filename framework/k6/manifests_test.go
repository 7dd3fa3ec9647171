package k6

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderManifestDefaults(t *testing.T) {
	data, err := RenderManifest(TestRunConfig{
		Name:      "k6-distributor",
		Namespace: "k6-loadtest",
		Service:   "distributor",
		TargetURL: "http://tempo-tempostack-distributor.tempo.svc.cluster.local:3200/ready",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obj, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("rendered manifest does not parse: %v", err)
	}

	if obj.GetName() != "k6-distributor" {
		t.Errorf("expected name k6-distributor, got %s", obj.GetName())
	}
	if obj.GetNamespace() != "k6-loadtest" {
		t.Errorf("expected namespace k6-loadtest, got %s", obj.GetNamespace())
	}
	if obj.GetLabels()[LabelManagedBy] != LabelManagedByValue {
		t.Error("expected managed-by label on rendered manifest")
	}

	manifest := string(data)
	if !strings.Contains(manifest, "parallelism: 1") {
		t.Error("expected default parallelism of 1")
	}
	if !strings.Contains(manifest, `value: "5m"`) {
		t.Error("expected default duration of 5m")
	}
	if strings.Contains(manifest, "RATE") {
		t.Error("RATE env must be omitted when no rate is set")
	}
	if strings.Contains(manifest, "K6_PROMETHEUS_RW_SERVER_URL") {
		t.Error("remote write env must be omitted when no URL is set")
	}
}

func TestRenderManifestRateAndRemoteWrite(t *testing.T) {
	data, err := RenderManifest(TestRunConfig{
		Name:           "k6-querier",
		Namespace:      "k6-loadtest",
		Service:        "querier",
		TargetURL:      "http://example:3200/ready",
		Rate:           100,
		RemoteWriteURL: "http://prometheus-user-workload.openshift-user-workload-monitoring.svc:9091/api/v1/write",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manifest := string(data)
	if !strings.Contains(manifest, `value: "100"`) {
		t.Error("expected RATE env with value 100")
	}
	if !strings.Contains(manifest, "K6_PROMETHEUS_RW_SERVER_URL") {
		t.Error("expected remote write env to be rendered")
	}
	if !strings.Contains(manifest, "-o experimental-prometheus-rw") {
		t.Error("expected prometheus output argument to be rendered")
	}
}

func TestRenderManifestRequiresNameAndNamespace(t *testing.T) {
	if _, err := RenderManifest(TestRunConfig{Namespace: "ns", Service: "querier"}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := RenderManifest(TestRunConfig{Name: "k6-querier", Service: "querier"}); err == nil {
		t.Error("expected error for missing namespace")
	}
}

func TestParseManifestRejectsWrongKind(t *testing.T) {
	_, err := ParseManifest([]byte("apiVersion: v1\nkind: Pod\nmetadata:\n  name: foo\n"))
	if err == nil {
		t.Fatal("expected error for non-TestRun manifest")
	}
	if !strings.Contains(err.Error(), "TestRun") {
		t.Errorf("error should name the expected kind, got: %v", err)
	}
}

func TestParseManifestRejectsGarbage(t *testing.T) {
	if _, err := ParseManifest([]byte("{not yaml")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "testrun-absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
	if !strings.Contains(err.Error(), "install") {
		t.Errorf("error should point at running install first, got: %v", err)
	}
}

func TestGenerateManifests(t *testing.T) {
	dir := t.TempDir()
	c := newFakeClients(t, "k6-loadtest")

	err := GenerateManifests(c, dir, GenerateOptions{
		Namespace:      "k6-loadtest",
		TempoNamespace: "tempo",
		Stack:          "tempostack",
		VUs:            5,
		Duration:       "2m",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, b := range Backends {
		path := filepath.Join(dir, ManifestFileName(b.Component))
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected manifest for %s: %v", b.Component, err)
		}

		obj, err := ParseManifest(data)
		if err != nil {
			t.Fatalf("manifest for %s does not parse: %v", b.Component, err)
		}
		if obj.GetName() != TestRunName(b.Component) {
			t.Errorf("expected name %s, got %s", TestRunName(b.Component), obj.GetName())
		}
		if !strings.Contains(string(data), b.ServiceName("tempostack")) {
			t.Errorf("manifest for %s should target its own service", b.Component)
		}
	}
}
