package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	cpu, mem       float64
	cpuErr, memErr error
}

func (s stubSource) CPUPercent(context.Context) (float64, error)    { return s.cpu, s.cpuErr }
func (s stubSource) MemoryPercent(context.Context) (float64, error) { return s.mem, s.memErr }

func TestCollect(t *testing.T) {
	tests := []struct {
		name    string
		src     stubSource
		want    Sample
		wantErr string
	}{
		{name: "both values", src: stubSource{cpu: 12.5, mem: 40.1}, want: Sample{CPU: 12.5, Memory: 40.1}},
		{name: "values are not clamped", src: stubSource{cpu: 130, mem: -1}, want: Sample{CPU: 130, Memory: -1}},
		{name: "cpu failure", src: stubSource{cpuErr: errors.New("boom")}, wantErr: "read cpu: boom"},
		{name: "memory failure", src: stubSource{cpu: 1, memErr: errors.New("boom")}, wantErr: "read memory: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(context.Background(), tt.src)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSample_EncodeDecode(t *testing.T) {
	s := Sample{CPU: 12.5, Memory: 40.1}

	text, err := s.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu": 12.5, "memory": 40.1}`, text)

	back, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, s, back)

	_, err = Decode("not json")
	assert.Error(t, err)
}

func TestSample_String(t *testing.T) {
	assert.Equal(t, "cpu=12.5% memory=40.1%", Sample{CPU: 12.5, Memory: 40.1}.String())
}

func TestHostSource_ReadsLocalHost(t *testing.T) {
	if testing.Short() {
		t.Skip("reads real host counters")
	}
	src := NewHostSource()

	cpuPct, err := src.CPUPercent(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cpuPct, 0.0)

	memPct, err := src.MemoryPercent(context.Background())
	require.NoError(t, err)
	assert.Greater(t, memPct, 0.0)
	assert.LessOrEqual(t, memPct, 100.0)
}
