package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dump = `[
 {"s":"SOLUSDT","o":"100","c":"102","t":0,"T":59999,"v":"10"},
 {"s":"ETHUSDT","o":"10","c":"10.1","t":0,"T":59999,"v":"3"},
 {"o":"1","c":"2"},
 {"s":"SOLUSDT","o":"102","c":"bad","t":60000,"T":119999}
]`

func TestLoadCandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "klines.json")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	all, skipped, err := loadCandles(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, all, 2)
	assert.Equal(t, "solusdt", all[0].Symbol)

	only, _, err := loadCandles(path, symbolFilter(" ETHUSDT ,"))
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "ethusdt", only[0].Symbol)
}

func TestLoadCandles_Errors(t *testing.T) {
	_, _, err := loadCandles(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"s":`), 0o644))
	_, _, err = loadCandles(path, nil)
	assert.Error(t, err)
}

func TestPumpParams_FromEnv(t *testing.T) {
	t.Setenv("REPLAY_PUMP_BASE_TICKS", "5")
	engine, err := newViper()
	require.NoError(t, err)

	p, err := pumpParams(engine)
	require.NoError(t, err)
	assert.Equal(t, 5, p.BaseTicks)
	assert.Equal(t, 3, p.ConfirmThreshold)
}
