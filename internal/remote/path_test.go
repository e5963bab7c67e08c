package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		path      string
		top       string
		child     string
		wantError bool
	}{
		{path: "gym_members", top: "gym_members"},
		{path: "activity_log/1_ab", top: "activity_log", child: "1_ab"},
		{path: "/activity_log/", top: "activity_log"},
		{path: "", wantError: true},
		{path: "a/b/c", wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			top, child, err := Split(tt.path)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.top, top)
			assert.Equal(t, tt.child, child)
		})
	}
}

func TestJoinChildren(t *testing.T) {
	data, err := JoinChildren(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = JoinChildren(map[string][]byte{
		"1_a": []byte(`{"id":"1_a"}`),
		"2_b": []byte(`{"id":"2_b"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"1_a":{"id":"1_a"},"2_b":{"id":"2_b"}}`, string(data))
}
