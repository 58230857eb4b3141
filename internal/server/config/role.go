package config

import (
	"fmt"

	"github.com/yndnr/redikv/internal/core/role"
)

// ToRole converts the replication section into the node's role. A primary
// without a configured replid gets a freshly generated one.
func ToRole(cfg *ServerConfig) (role.Role, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is nil")
	}

	if cfg.Replication.ReplicaOf != "" {
		host, port, err := ParseReplicaOf(cfg.Replication.ReplicaOf)
		if err != nil {
			return nil, fmt.Errorf("%w: replication.replicaof: %v", ErrInvalidConfig, err)
		}
		return role.Replica{
			PrimaryHost:   host,
			PrimaryPort:   port,
			ListeningPort: cfg.Server.Port,
		}, nil
	}

	id := cfg.Replication.ReplID
	if id == "" {
		generated, err := role.NewReplicationID()
		if err != nil {
			return nil, fmt.Errorf("generate replication id: %w", err)
		}
		id = generated
	}
	return role.Primary{ReplicationID: id}, nil
}
