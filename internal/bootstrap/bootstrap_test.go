package bootstrap

import (
	"context"
	"testing"

	"github.com/spf13/viper"

	"alfredoptarigan/resume-matcher/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadFrom(viper.New(), "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Storage.UploadPath = t.TempDir()
	return cfg
}

func TestNewModelProviders(t *testing.T) {
	tests := []struct {
		provider string
		apiKey   string
		wantName string
	}{
		{provider: config.ProviderOllama, wantName: "ollama"},
		{provider: config.ProviderOpenAI, apiKey: "sk-test", wantName: "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Model.Provider = tt.provider
			cfg.Model.OpenAI.APIKey = tt.apiKey

			model, err := NewModel(context.Background(), cfg, nil)
			if err != nil {
				t.Fatalf("NewModel: %v", err)
			}
			if got := model.Client.Name(); got != tt.wantName {
				t.Errorf("expected client name %q, got %q", tt.wantName, got)
			}
			if model.Embedder == nil {
				t.Error("expected an embedder")
			}
		})
	}
}

func TestNewModelUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.Provider = "watson"

	if _, err := NewModel(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewStorageLocal(t *testing.T) {
	cfg := testConfig(t)

	storage, err := NewStorage(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if storage == nil {
		t.Fatal("expected storage")
	}
}

func TestNewStorageUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "ftp"

	if _, err := NewStorage(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOptionalServicesDisabledByDefault(t *testing.T) {
	cfg := testConfig(t)

	notifier, err := NewNotifier(cfg, nil)
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	if err := notifier.Close(); err != nil {
		t.Errorf("noop notifier close: %v", err)
	}

	pool, err := NewTalentPool(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewTalentPool: %v", err)
	}
	if pool != nil {
		t.Error("expected nil talent pool without a Qdrant URL")
	}
}
