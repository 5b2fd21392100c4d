package erasure_coding

import (
	"testing"

	"github.com/klauspost/reedsolomon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeValidate(t *testing.T) {
	testCases := []struct {
		name    string
		scheme  Scheme
		wantErr error
	}{
		{"minimal", Scheme{2, 1}, nil},
		{"default", DefaultScheme, nil},
		{"single data shard", Scheme{1, 1}, reedsolomon.ErrInvShardNum},
		{"no parity", Scheme{4, 0}, reedsolomon.ErrInvShardNum},
		{"too wide", Scheme{250, 8}, reedsolomon.ErrMaxShardNum},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scheme.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestSchemeShards(t *testing.T) {
	s, err := NewScheme(4, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, s.TotalShards())
	assert.Equal(t, ShardId(5), s.LeaderShard())
	assert.True(t, s.IsDataShard(3))
	assert.False(t, s.IsDataShard(4))
	assert.Equal(t, "4+2", s.String())
}

func TestSchemeEncoderSplitsEvenly(t *testing.T) {
	s := Scheme{DataShards: 4, ParityShards: 2}
	enc, err := s.NewEncoder()
	require.NoError(t, err)

	value := make([]byte, 4096)
	for i := range value {
		value[i] = byte(i)
	}
	shards, err := enc.Split(value)
	require.NoError(t, err)
	require.Len(t, shards, 6)
	for i := 0; i < 4; i++ {
		assert.Equal(t, value[i*1024:(i+1)*1024], shards[i])
	}
}
