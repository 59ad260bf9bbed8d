package extract

import (
	"fmt"

	"github.com/ritzau/ltm-terrify/pkg/ident"
	"github.com/ritzau/ltm-terrify/pkg/model"
)

// BlankIdentifierError means a name left nothing usable for an identifier.
// For nodes, Pool and Member hold the member the node was derived from.
type BlankIdentifierError struct {
	Type   model.ResourceType
	Name   string // raw name before sanitizing
	Path   string
	Pool   string
	Member model.Member
}

func (e *BlankIdentifierError) Error() string {
	if e.Type == model.ResourceNode {
		return fmt.Sprintf("member of pool %s yields an empty node identifier: name=%q fullPath=%q selfLink=%q",
			e.Pool, e.Member.Name, e.Member.FullPath, e.Member.SelfLink)
	}
	return fmt.Sprintf("%s %s yields an empty identifier: name=%q", e.Type, e.Path, e.Name)
}

// claim sanitizes name and reserves the result for path
func claim(reg *ident.Registry, rt model.ResourceType, name, path string) (string, error) {
	id := ident.Sanitize(name)
	if ident.IsBlank(id) {
		return "", &BlankIdentifierError{Type: rt, Name: name, Path: path}
	}
	return reg.Claim(rt, id, path)
}
