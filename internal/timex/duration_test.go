package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{`"30s"`, 30 * time.Second, false},
		{`"5m"`, 5 * time.Minute, false},
		{`1000000000`, time.Second, false},
		{`"bogus"`, 0, true},
		{`true`, 0, true},
	}

	for _, tt := range tests {
		var d Duration
		err := json.Unmarshal([]byte(tt.input), &d)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, d.Duration, tt.input)
	}
}

func TestDurationMarshal(t *testing.T) {
	d := Duration{Duration: 90 * time.Second}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}
