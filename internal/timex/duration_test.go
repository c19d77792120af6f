package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type holder struct {
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

func TestDuration_JSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", in: `{"timeout":"90s"}`, want: 90 * time.Second},
		{name: "nanoseconds", in: `{"timeout":1000000000}`, want: time.Second},
		{name: "null", in: `{"timeout":null}`, want: 0},
		{name: "bad string", in: `{"timeout":"soon"}`, wantErr: true},
		{name: "bad type", in: `{"timeout":true}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h holder
			err := json.Unmarshal([]byte(tt.in), &h)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Timeout.Duration)
		})
	}
}

func TestDuration_YAML(t *testing.T) {
	var h holder
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 24h\n"), &h))
	assert.Equal(t, 24*time.Hour, h.Timeout.Duration)

	require.NoError(t, yaml.Unmarshal([]byte("timeout: 5\n"), &h))
	assert.Equal(t, time.Duration(5), h.Timeout.Duration)

	assert.Error(t, yaml.Unmarshal([]byte("timeout: later\n"), &h))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(holder{Timeout: Duration{Duration: 2 * time.Minute}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":"2m0s"}`, string(b))
}
