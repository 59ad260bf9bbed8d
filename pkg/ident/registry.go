package ident

import (
	"fmt"
	"strconv"

	"github.com/ritzau/ltm-terrify/pkg/model"
)

// CollisionPolicy decides what happens when two distinct paths sanitize to the
// same identifier within one resource type
type CollisionPolicy string

const (
	PolicyError  CollisionPolicy = "error"  // Abort the run
	PolicySuffix CollisionPolicy = "suffix" // Append _2, _3, ... and report it
)

// ParseCollisionPolicy validates a policy name
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case PolicyError, PolicySuffix:
		return CollisionPolicy(s), nil
	}
	return "", fmt.Errorf("unknown collision policy %q (want %q or %q)", s, PolicyError, PolicySuffix)
}

// Collision records an identifier that was already taken by another path
type Collision struct {
	Type       model.ResourceType
	Identifier string // The contested identifier
	Owner      string // Path that claimed it first
	Path       string // Path that collided
	Resolved   string // Identifier assigned instead (suffix policy only)
}

// CollisionError is returned by Claim under PolicyError
type CollisionError struct {
	Collision
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("identifier collision: %s.%s is claimed by %q and %q",
		e.Type, e.Identifier, e.Owner, e.Path)
}

// Registry hands out identifiers per resource type and detects collisions
type Registry struct {
	policy     CollisionPolicy
	owners     map[model.ResourceType]map[string]string // identifier -> path
	assigned   map[model.ResourceType]map[string]string // path -> identifier
	collisions []Collision
}

// NewRegistry creates an empty registry
func NewRegistry(policy CollisionPolicy) *Registry {
	if policy == "" {
		policy = PolicyError
	}
	return &Registry{
		policy:   policy,
		owners:   make(map[model.ResourceType]map[string]string),
		assigned: make(map[model.ResourceType]map[string]string),
	}
}

// Claim reserves id for path within resource type rt and returns the
// identifier to use. Claiming the same path twice returns the same identifier.
func (r *Registry) Claim(rt model.ResourceType, id, path string) (string, error) {
	owners := r.owners[rt]
	if owners == nil {
		owners = make(map[string]string)
		r.owners[rt] = owners
		r.assigned[rt] = make(map[string]string)
	}
	assigned := r.assigned[rt]

	if prev, ok := assigned[path]; ok {
		return prev, nil
	}

	owner, taken := owners[id]
	if !taken {
		owners[id] = path
		assigned[path] = id
		return id, nil
	}

	c := Collision{Type: rt, Identifier: id, Owner: owner, Path: path}
	if r.policy == PolicyError {
		return "", &CollisionError{Collision: c}
	}

	for n := 2; ; n++ {
		candidate := id + "_" + strconv.Itoa(n)
		if _, used := owners[candidate]; used {
			continue
		}
		owners[candidate] = path
		assigned[path] = candidate
		c.Resolved = candidate
		r.collisions = append(r.collisions, c)
		return candidate, nil
	}
}

// Collisions returns the collisions resolved so far, in claim order
func (r *Registry) Collisions() []Collision {
	return r.collisions
}
