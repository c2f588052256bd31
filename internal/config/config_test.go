package config

import (
	"os"
	"path/filepath"
	"testing"

	"wallet-cleanup-sol/internal/consts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", c.Rpc)
	assert.Equal(t, 5, c.BatchConf.ParallelTransactions)
	assert.Equal(t, 90, c.BatchConf.ConfirmationTimeoutSec)
	assert.False(t, c.BatchConf.AbortOnFail)
	assert.Equal(t, "info", c.LogConf.Level)
	assert.Equal(t, "wallet-cleanup-outcome", c.KafkaProducerConf.Topic)
	assert.False(t, c.KafkaProducerConf.Enabled())
	require.NoError(t, c.Validate())
	require.NoError(t, c.ValidateRpc())
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("CLEANUP_TEST_RPC", "https://rpc.example.org")
	path := filepath.Join(t.TempDir(), "cleanup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc: ${CLEANUP_TEST_RPC}
report_file: /tmp/report.yaml
logger:
  level: debug
batch:
  parallel_transactions: 8
  abort_on_fail: true
fee:
  compute_unit_price: 1000
kafka_producer:
  brokers: 127.0.0.1:9092
  partitions: 3
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.org", c.Rpc)
	assert.Equal(t, "/tmp/report.yaml", c.ReportFile)
	assert.Equal(t, "debug", c.LogConf.Level)
	assert.Equal(t, 8, c.BatchConf.ParallelTransactions)
	assert.True(t, c.BatchConf.AbortOnFail)
	assert.Equal(t, 90, c.BatchConf.ConfirmationTimeoutSec)
	assert.Equal(t, uint64(1000), c.FeeConf.ComputeUnitPrice)
	assert.True(t, c.KafkaProducerConf.Enabled())
	assert.Equal(t, 3, c.KafkaProducerConf.Partitions)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRpc:                  "https://devnet.example.org",
		EnvPrivateKey:           "/keys/id.json",
		EnvSimulate:             "true",
		EnvParallelTransactions: "12",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var c Config
	require.NoError(t, c.applyEnv(lookup))
	assert.Equal(t, "https://devnet.example.org", c.Rpc)
	assert.Equal(t, "/keys/id.json", c.PrivateKey)
	assert.True(t, c.BatchConf.SimulateOnly)
	assert.Equal(t, 12, c.BatchConf.ParallelTransactions)

	env[EnvParallelTransactions] = "many"
	assert.Error(t, c.applyEnv(lookup))
}

func TestValidate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	bad := c
	bad.BatchConf.ParallelTransactions = 0
	assert.Error(t, bad.Validate())

	bad = c
	bad.FeeConf.FeePerInstructionSol = 0.001
	assert.Error(t, bad.Validate(), "缺少 fee_receiver")

	bad.FeeConf.FeeReceiver = "not-a-key"
	assert.Error(t, bad.Validate())

	bad.FeeConf.FeeReceiver = "11111111111111111111111111111111"
	assert.NoError(t, bad.Validate())

	bad = c
	bad.FeeConf.ComputeUnitLimit = consts.ComputeUnits + 1
	assert.Error(t, bad.Validate())
	bad.FeeConf.ComputeUnitLimit = consts.ComputeUnits
	assert.NoError(t, bad.Validate())

	bad = c
	bad.Rpc = "ftp://example.org"
	assert.Error(t, bad.ValidateRpc())
	bad.Rpc = "mainnet"
	assert.Error(t, bad.ValidateRpc())
}
