// Package role holds the replication identity of a redikv node.
//
// A node is either a Primary, which owns a replication id and offset, or a
// Replica, which knows where its primary lives. The Role value is fixed at
// startup. The only identity that changes afterwards is the primary's
// replication id learned by a replica during full resync, which lives in
// State alongside the Role.
package role

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/yndnr/redikv/internal/protocol/resp"
)

// ReplicationIDLen is the length of a replication id in hex characters.
const ReplicationIDLen = 40

// Role is either Primary or Replica.
type Role interface {
	// Name returns "master" or "slave", as reported by INFO.
	Name() string
	isRole()
}

// Primary is the identity of a node that serves full resyncs.
type Primary struct {
	ReplicationID     string
	ReplicationOffset int64
}

// Replica is the identity of a node that follows a primary.
type Replica struct {
	PrimaryHost   string
	PrimaryPort   int
	ListeningPort int
}

func (Primary) Name() string { return resp.RoleMaster }
func (Replica) Name() string { return resp.RoleSlave }

func (Primary) isRole() {}
func (Replica) isRole() {}

// PrimaryAddr returns the dialable host:port of the primary.
func (r Replica) PrimaryAddr() string {
	return net.JoinHostPort(r.PrimaryHost, strconv.Itoa(r.PrimaryPort))
}

// NewReplicationID returns a random 40 character hex id.
func NewReplicationID() (string, error) {
	b := make([]byte, ReplicationIDLen/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// State is the process-wide replication state shared by the dispatcher and
// the replica handshake client.
type State struct {
	role  Role
	known atomic.Pointer[string]
}

// NewState wraps an immutable Role.
func NewState(r Role) *State {
	return &State{role: r}
}

// Role returns the immutable role.
func (s *State) Role() Role {
	return s.role
}

// IsPrimary reports whether the node runs as a primary.
func (s *State) IsPrimary() bool {
	_, ok := s.role.(Primary)
	return ok
}

// SetKnownReplicationID records the primary's replication id learned from
// a FULLRESYNC reply.
func (s *State) SetKnownReplicationID(id string) {
	s.known.Store(&id)
}

// KnownReplicationID returns the primary's replication id, if a full resync
// has completed.
func (s *State) KnownReplicationID() (string, bool) {
	p := s.known.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// Info returns the INFO reply for this node.
func (s *State) Info() resp.InfoReply {
	switch r := s.role.(type) {
	case Primary:
		return resp.InfoReply{Role: resp.RoleMaster, ReplID: r.ReplicationID, Offset: r.ReplicationOffset}
	default:
		return resp.InfoReply{Role: s.role.Name()}
	}
}
