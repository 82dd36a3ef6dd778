package simulator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *SimConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *SimConfig) {}},
		{name: "zero quantum", mutate: func(c *SimConfig) { c.QuantumTime = 0 }, wantErr: true},
		{name: "negative quantum", mutate: func(c *SimConfig) { c.QuantumTime = -3 }, wantErr: true},
		{name: "blank prefix", mutate: func(c *SimConfig) { c.PartitionPrefix = "  " }, wantErr: true},
		{name: "custom prefix", mutate: func(c *SimConfig) { c.PartitionPrefix = "Block" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, IsInvalidInput(err), "config errors are InvalidInput: %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewSimulator_RejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.QuantumTime = 0

	sim, err := NewSimulator(config)
	require.Error(t, err)
	require.Nil(t, sim)
}

func TestUpdateConfig_DiscardsLastRun(t *testing.T) {
	sim := newTestSimulator(t, 4)
	require.NoError(t, sim.AddProcess("P1", 10, StatusNotBlocked, 100))
	require.NoError(t, sim.Run())
	require.NotEmpty(t, sim.Logs())

	config := sim.Config()
	config.QuantumTime = 0
	require.Error(t, sim.UpdateConfig(config))
	require.Equal(t, int64(4), sim.Config().QuantumTime, "rejected config must not be applied")
	require.NotEmpty(t, sim.Logs(), "rejected config must not reset the run")

	config.QuantumTime = 2
	require.NoError(t, sim.UpdateConfig(config))
	require.Empty(t, sim.Logs())
	require.Empty(t, sim.Report())
}

func TestEnumJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(struct {
		Stage  Stage  `json:"stage"`
		Status Status `json:"status"`
	}{StageBlockTransition, StatusBlocked})
	require.NoError(t, err)
	require.JSONEq(t, `{"stage":"block_transition","status":"blocked"}`, string(data))

	var decoded struct {
		Stage  Stage  `json:"stage"`
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"stage":"wakeup","status":"not_blocked"}`), &decoded))
	require.Equal(t, StageWakeup, decoded.Stage)
	require.Equal(t, StatusNotBlocked, decoded.Status)

	require.Error(t, json.Unmarshal([]byte(`{"stage":"sleeping"}`), &decoded))
}

func TestParseStage_AllStages(t *testing.T) {
	for _, stage := range AllStages {
		parsed, err := ParseStage(stage.String())
		require.NoError(t, err)
		require.Equal(t, stage, parsed)
	}
	parsed, err := ParseStage(" IN_EXECUTION ")
	require.NoError(t, err)
	require.Equal(t, StageInExecution, parsed)
}
