package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcapi "vitals-monitor/internal/api/grpc"
	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
	"vitals-monitor/internal/infrastructure/repository/memory"
)

func clearDatabaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_DSN", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME"} {
		t.Setenv(key, "")
	}
}

func TestFlagOverridesApply(t *testing.T) {
	t.Log("Шаг 1: применяем флаги поверх конфигурации окружения")
	warmUp := 1500 * time.Microsecond
	tick := 250 * time.Microsecond
	limit := 4
	policy := "out-of-range"
	seed := int64(7)

	cfg := infra.Config{HTTPPort: "8080", WarmUpMillis: 5000, TickMillis: 3000, SampleCap: 10, Policy: "all"}
	flagOverrides{
		HTTPPort: "9090",
		LogLevel: "debug",
		WarmUp:   &warmUp,
		Tick:     &tick,
		Cap:      &limit,
		Policy:   &policy,
		Seed:     &seed,
	}.apply(&cfg)

	t.Log("Шаг 2: проверяем, что значения заменены, а неуказанные сохранены")
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1, cfg.WarmUpMillis)
	assert.Equal(t, 1, cfg.TickMillis, "sub-millisecond ticks must not fall back to the default")
	assert.Equal(t, 4, cfg.SampleCap)
	assert.Equal(t, "out-of-range", cfg.Policy)
	assert.Equal(t, int64(7), cfg.RandSeed)

	t.Log("Шаг 3: пустые переопределения ничего не меняют")
	before := cfg
	flagOverrides{}.apply(&cfg)
	assert.Equal(t, before, cfg)
}

func TestProvideChannelsRejectsUnknownPolicy(t *testing.T) {
	_, err := provideChannels(infra.Config{Policy: "sometimes"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestProvideChannelsAppliesConfig(t *testing.T) {
	channels, err := provideChannels(infra.Config{Policy: "out-of-range", WarmUpMillis: 10, TickMillis: 20, SampleCap: 3})
	require.NoError(t, err)
	require.Len(t, channels, 2)

	for _, channel := range channels {
		assert.Equal(t, domain.PolicyOutOfRange, channel.Policy)
		assert.Equal(t, 10*time.Millisecond, channel.WarmUp)
		assert.Equal(t, 20*time.Millisecond, channel.TickPeriod)
		assert.Equal(t, 3, channel.SampleCap)
	}
}

func TestProvideArchiveWithoutDatabaseUsesMemory(t *testing.T) {
	logger := infra.NewLogger(io.Discard, "test")

	archive, cleanup, err := provideArchive(context.Background(), infra.Config{}, logger)
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &memory.Repository{}, archive)
}

func TestRenderStatusTable(t *testing.T) {
	var out bytes.Buffer
	renderStatusTable(&out, []grpcapi.ChannelStatus{
		{Channel: "glucose", State: "done", Policy: "all", SamplesTaken: 10, SampleCap: 10, Classification: "High", Statistic: "mean 130.00", Unit: "mg/dL"},
		{Channel: "crustrol", State: "sampling", Policy: "out-of-range", SamplesTaken: 2, SampleCap: 10},
	})

	text := out.String()
	assert.Contains(t, text, "CLASSIFICATION")
	assert.Contains(t, text, "mean 130.00 mg/dL")
	assert.Contains(t, text, "10/10")
	assert.Contains(t, text, "2/10")
	assert.Contains(t, text, "sampling")
}

func TestLocalStatusStatistic(t *testing.T) {
	state := domain.ChannelState{Channel: "crustrol", State: domain.StateDone, Policy: domain.PolicyOutOfRange, SamplesTaken: 10, SampleCap: 10}

	pending := localStatus(state, nil)
	assert.Empty(t, pending.Classification)
	assert.Empty(t, pending.Statistic)

	summary := domain.Summary{Policy: domain.PolicyOutOfRange, Count: 2, Min: 148, Max: 156, Unit: "mg/dL", Classification: domain.ClassificationHigh}
	done := localStatus(state, &summary)
	assert.Equal(t, "High", done.Classification)
	assert.Equal(t, "min 148.00 / max 156.00", done.Statistic)

	empty := localStatus(state, &domain.Summary{Policy: domain.PolicyOutOfRange})
	assert.Equal(t, "No-data", empty.Classification)
	assert.Empty(t, empty.Statistic)
}

func TestRunCommandPrintsDiagnoses(t *testing.T) {
	clearDatabaseEnv(t)

	t.Log("Шаг 1: запускаем команду run с короткими интервалами")
	var out, logs bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs([]string{
		"run",
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--warmup", "1ms",
		"--tick", "2ms",
		"--cap", "3",
		"--seed", "42",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, root.ExecuteContext(ctx))

	t.Log("Шаг 2: проверяем таблицу и тексты диагнозов")
	text := out.String()
	assert.Contains(t, text, "CLASSIFICATION")
	assert.Contains(t, text, "3/3")
	assert.Contains(t, text, "glucoseDiagnosis: ")
	assert.Contains(t, text, "Average glucose reading:")
	assert.Contains(t, text, "crustrolDiagnosis: ")
	assert.Contains(t, text, "Diagnosis for all crustrol readings:")
	assert.GreaterOrEqual(t, strings.Count(text, "glucose  "), 1, "chart pushes are echoed")
}

func TestRunCommandRejectsUnknownPolicy(t *testing.T) {
	clearDatabaseEnv(t)

	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"run", "--env-file", filepath.Join(t.TempDir(), "missing.env"), "--policy", "sometimes"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sometimes")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	logger := infra.NewLogger(io.Discard, "test")

	err := migrate(context.Background(), infra.Config{}, logger)
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestStatusCommandReportsUnreachableServer(t *testing.T) {
	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"status", "--env-file", filepath.Join(t.TempDir(), "missing.env"), "--addr", "127.0.0.1:1", "--timeout", "200ms"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list channels from 127.0.0.1:1")
}
