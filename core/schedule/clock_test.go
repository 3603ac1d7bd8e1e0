package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "9:05", want: 545},
		{in: " 23:59 ", want: 1439},
		{in: "24:00", want: 1440},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
		{in: "-1:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClock_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Start Clock `json:"start"`
	}{Start: 545})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start": "09:05"}`, string(data))

	var v struct {
		End Clock `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"end": "14:45"}`), &v))
	assert.Equal(t, Clock(885), v.End)
	assert.Error(t, json.Unmarshal([]byte(`{"end": 885}`), &v))
}
