package role

import (
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/redikv/internal/protocol/resp"
)

func TestNewReplicationID(t *testing.T) {
	a, err := NewReplicationID()
	require.NoError(t, err)
	b, err := NewReplicationID()
	require.NoError(t, err)

	assert.Len(t, a, ReplicationIDLen)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestState_PrimaryInfo(t *testing.T) {
	s := NewState(Primary{ReplicationID: "8371b4fb1155b71f4a04d3e1bc3e18c4a990aeeb"})

	assert.True(t, s.IsPrimary())
	assert.Equal(t,
		"role:master\nmaster_replid:8371b4fb1155b71f4a04d3e1bc3e18c4a990aeeb\nmaster_repl_offset:0\n",
		s.Info().Body())
}

func TestState_ReplicaInfo(t *testing.T) {
	s := NewState(Replica{PrimaryHost: "localhost", PrimaryPort: 6379, ListeningPort: 6380})

	assert.False(t, s.IsPrimary())
	assert.Equal(t, "role:slave", s.Info().Body())
	assert.Equal(t, resp.RoleSlave, s.Role().Name())

	// Learning the primary's id does not change what INFO reports.
	s.SetKnownReplicationID("abc")
	assert.Equal(t, "role:slave", s.Info().Body())
}

func TestReplica_PrimaryAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Replica{PrimaryHost: "localhost", PrimaryPort: 6379}.PrimaryAddr())
	assert.Equal(t, "[::1]:7000", Replica{PrimaryHost: "::1", PrimaryPort: 7000}.PrimaryAddr())
}

func TestState_KnownReplicationID(t *testing.T) {
	s := NewState(Replica{PrimaryHost: "localhost", PrimaryPort: 6379})

	_, ok := s.KnownReplicationID()
	assert.False(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetKnownReplicationID("id")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.KnownReplicationID()
			_ = s.Info()
		}()
	}
	wg.Wait()

	id, ok := s.KnownReplicationID()
	require.True(t, ok)
	assert.Equal(t, "id", id)
}
