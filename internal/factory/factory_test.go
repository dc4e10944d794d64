package factory

import (
	"context"
	"testing"

	"github.com/mikey/spam-evidence-engine/internal/adapters/openai"
	"github.com/mikey/spam-evidence-engine/internal/adapters/reputation"
	"github.com/mikey/spam-evidence-engine/internal/config"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/semantic"
	"github.com/mikey/spam-evidence-engine/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(overrides map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestAnalyzerFactory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		overrides map[string]interface{}
		check     func(t *testing.T, a core.SemanticAnalyzer, err error)
	}{
		{
			name:      "none disables the analyzer",
			overrides: map[string]interface{}{"semantic.provider": "none"},
			check: func(t *testing.T, a core.SemanticAnalyzer, err error) {
				require.NoError(t, err)
				assert.Nil(t, a)
			},
		},
		{
			name:      "gemini without key is unconfigured",
			overrides: map[string]interface{}{"semantic.provider": "gemini"},
			check: func(t *testing.T, a core.SemanticAnalyzer, err error) {
				require.NoError(t, err)
				assert.IsType(t, semantic.Unconfigured{}, a)
			},
		},
		{
			name:      "openai without key is unconfigured",
			overrides: map[string]interface{}{"semantic.provider": "openai"},
			check: func(t *testing.T, a core.SemanticAnalyzer, err error) {
				require.NoError(t, err)
				assert.IsType(t, semantic.Unconfigured{}, a)
			},
		},
		{
			name:      "openai with key",
			overrides: map[string]interface{}{"semantic.provider": "openai", "openai.api_key": "sk-test"},
			check: func(t *testing.T, a core.SemanticAnalyzer, err error) {
				require.NoError(t, err)
				assert.IsType(t, &openai.OpenAIClient{}, a)
			},
		},
		{
			name:      "unknown provider",
			overrides: map[string]interface{}{"semantic.provider": "watson"},
			check: func(t *testing.T, a core.SemanticAnalyzer, err error) {
				assert.ErrorContains(t, err, "unsupported semantic provider")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewAnalyzerFactory(testConfig(tt.overrides), zap.NewNop())
			a, err := f.CreateAnalyzer(ctx)
			tt.check(t, a, err)
		})
	}
}

func TestReputationFactory(t *testing.T) {
	ctx := context.Background()

	f := NewReputationFactory(testConfig(map[string]interface{}{"reputation.backend": "memory"}), zap.NewNop())
	store, err := f.CreateSeededStore(ctx)
	require.NoError(t, err)
	defer store.Close()

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(config.DefaultSeedDomains)), size)
	assert.True(t, store.Contains(ctx, "paypal-secure.net"))

	path := t.TempDir() + "/nested/reputation.db"
	f = NewReputationFactory(testConfig(map[string]interface{}{
		"reputation.backend":     "sqlite",
		"reputation.sqlite_path": path,
	}), zap.NewNop())
	store, err = f.CreateStore(ctx)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &reputation.SQLStore{}, store)

	f = NewReputationFactory(testConfig(map[string]interface{}{"reputation.backend": "etcd"}), zap.NewNop())
	_, err = f.CreateStore(ctx)
	assert.ErrorContains(t, err, "unsupported reputation backend")
}

func TestClassifierFactory(t *testing.T) {
	f := NewClassifierFactory(testConfig(nil), zap.NewNop())
	model, err := f.CreateClassifier()
	require.NoError(t, err)
	assert.Greater(t, model.PredictSpamProbability("verify your details to prevent account suspension"), 0.5)

	f = NewClassifierFactory(testConfig(map[string]interface{}{"classifier.training_file": "/does/not/exist.yaml"}), zap.NewNop())
	_, err = f.CreateClassifier()
	assert.Error(t, err)
}

func TestScoringFactory(t *testing.T) {
	cfg := testConfig(map[string]interface{}{"semantic.provider": "none"})
	f := NewScoringFactory(cfg, zap.NewNop())

	providers, err := f.CreateProviders(
		reputation.NewMemoryStore(zap.NewNop()),
		nil,
		nil,
		utils.NewTextProcessor(zap.NewNop()),
	)
	require.NoError(t, err)

	var names []core.SignalName
	for _, p := range providers {
		names = append(names, p.Name())
	}
	assert.Equal(t, core.SignalOrder, names)

	svc, err := f.CreateService(providers)
	require.NoError(t, err)
	assert.Equal(t, "semantic", svc.Profile().Name)
	assert.Equal(t, core.DefaultThreshold, svc.Profile().Threshold)

	_, err = NewScoringFactory(testConfig(map[string]interface{}{"scoring.profile": "nope"}), zap.NewNop()).CreateProfile()
	assert.Error(t, err)

	typo := testConfig(map[string]interface{}{"scoring.profiles.semantic.reputaton": 0.2})
	_, err = NewScoringFactory(typo, zap.NewNop()).CreateService(providers)
	assert.ErrorIs(t, err, core.ErrUnknownSignal)
}
