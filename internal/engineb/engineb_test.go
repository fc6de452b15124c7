package engineb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchSizeTier_CPU(t *testing.T) {
	r, d := batchSizeTier(false, 0)
	assert.Equal(t, 32, r)
	assert.Equal(t, 6, d)
}

func TestBatchSizeTier_GPUTiers(t *testing.T) {
	r, d := batchSizeTier(true, 48)
	assert.Equal(t, 128, r)
	assert.Equal(t, 64, d)

	r, d = batchSizeTier(true, 24)
	assert.Equal(t, 64, r)
	assert.Equal(t, 32, d)

	r, d = batchSizeTier(true, 8)
	assert.Equal(t, 32, r)
	assert.Equal(t, 16, d)
}

func TestConfigureBatchSizes_DoesNotOverrideExistingEnv(t *testing.T) {
	os.Unsetenv(envRecognitionBatchSize)
	os.Unsetenv(envDetectorBatchSize)
	defer os.Unsetenv(envRecognitionBatchSize)
	defer os.Unsetenv(envDetectorBatchSize)

	os.Setenv(envRecognitionBatchSize, "7")

	ConfigureBatchSizes(false, 0)

	assert.Equal(t, "7", os.Getenv(envRecognitionBatchSize))
	assert.Equal(t, "6", os.Getenv(envDetectorBatchSize))
}

func TestConvertWithFallback_NoFallbackWithNilBundle(t *testing.T) {
	called := false
	_, fellBack, err := ConvertWithFallback(context.Background(), nil, Config{}, nil, func() (*ModelBundle, error) {
		called = true
		return nil, nil
	})
	assert.Error(t, err)
	assert.False(t, fellBack)
	assert.False(t, called)
}
