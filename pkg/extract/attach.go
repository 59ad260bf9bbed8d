package extract

import (
	"github.com/ritzau/ltm-terrify/pkg/ident"
	"github.com/ritzau/ltm-terrify/pkg/model"
)

// Attachment binds one pool to one node it uses
type Attachment struct {
	Identifier string
	Pool       model.Pool
	NodePath   string
}

// Key returns the composite (pool, node) key
func (a Attachment) Key() string {
	return a.Pool.FullPath + "|" + a.NodePath
}

// GenerateAttachments emits one attachment per distinct (pool, node) pair for
// the used pools, in pool order and then node order
func GenerateAttachments(pools []model.Pool, used PathSet, poolNodes map[string][]string, reg *ident.Registry) ([]Attachment, error) {
	var attachments []Attachment

	for _, pool := range pools {
		if !used.Has(pool.FullPath) {
			continue
		}

		for _, nodePath := range poolNodes[pool.FullPath] {
			a := Attachment{Pool: pool, NodePath: nodePath}
			id, err := claim(reg, model.ResourcePoolAttachment, pool.Name+nodePath, a.Key())
			if err != nil {
				return nil, err
			}
			a.Identifier = id
			attachments = append(attachments, a)
		}
	}

	return attachments, nil
}
