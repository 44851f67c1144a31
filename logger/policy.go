package logger

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/philipp01105/batchlog/core"
)

// OverflowPolicy defines how a log call behaves when its worker queue is full
type OverflowPolicy int

const (
	// DropNewest drops the call that found the queue full
	DropNewest OverflowPolicy = iota
	// DropOldest drops the oldest queued call to make room
	DropOldest
	// Block waits for space, up to the pool's BlockTimeout
	Block
)

// String returns the string representation of the policy
func (p OverflowPolicy) String() string {
	switch p {
	case DropNewest:
		return "DropNewest"
	case DropOldest:
		return "DropOldest"
	case Block:
		return "Block"
	default:
		return "Unknown"
	}
}

// ParseOverflowPolicy converts a policy name, case-insensitively, to an
// OverflowPolicy. Both "drop_newest" and "DropNewest" are accepted.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "dropnewest":
		return DropNewest, nil
	case "dropoldest":
		return DropOldest, nil
	case "block":
		return Block, nil
	}
	return DropNewest, errors.Errorf("unknown overflow policy %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *OverflowPolicy) UnmarshalText(text []byte) error {
	v, err := ParseOverflowPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// DefaultLevelPolicy returns the default level-based overflow policies.
// Every level blocks so that no call is lost while the pipeline keeps up.
func DefaultLevelPolicy() map[core.Level]OverflowPolicy {
	policy := make(map[core.Level]OverflowPolicy, len(core.Levels))
	for _, l := range core.Levels {
		policy[l] = Block
	}
	return policy
}
