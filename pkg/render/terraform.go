// Package render turns an extraction result into Terraform text for the
// bigip provider, plus a human readable run summary.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/ritzau/ltm-terrify/pkg/extract"
	"github.com/ritzau/ltm-terrify/pkg/filter"
	"github.com/ritzau/ltm-terrify/pkg/model"
)

// ImportStyle selects how import directives are written
type ImportStyle string

const (
	ImportComment ImportStyle = "comment" // #import# terraform import <addr> <key>
	ImportBlock   ImportStyle = "block"   // import { to = <addr>  id = "<key>" }
)

// ParseImportStyle validates an import style name
func ParseImportStyle(s string) (ImportStyle, error) {
	switch ImportStyle(s) {
	case ImportComment, ImportBlock:
		return ImportStyle(s), nil
	case "":
		return ImportComment, nil
	}
	return "", fmt.Errorf("unknown import style %q (want %q or %q)", s, ImportComment, ImportBlock)
}

// Options controls what Terraform writes. It is passed by value and never
// mutated while rendering.
type Options struct {
	EmitResources bool
	ShowOrphans   bool
	ImportStyle   ImportStyle
	RewriteHints  bool
}

// DefaultOptions emits resources with comment-style imports
func DefaultOptions() Options {
	return Options{EmitResources: true, ImportStyle: ImportComment}
}

// attr is one line inside a resource block. Only these static fields are
// ever rendered.
type attr struct {
	key   string
	value string
}

// Terraform writes the result in processing order: virtual servers, pools
// (with unreferenced pool comments in place), nodes, attachments, then
// unreferenced node comments. The text is built in memory and written with
// a single call, so a failed run never leaves partial output behind.
func Terraform(w io.Writer, result *extract.Result, opts Options) error {
	if opts.ImportStyle == "" {
		opts.ImportStyle = ImportComment
	}

	var buf bytes.Buffer
	e := &emitter{buf: &buf, opts: opts}

	e.header(result)

	for _, vip := range result.VirtualServers {
		e.resource(model.ResourceVirtualServer, vip.Identifier, vip.FullPath,
			attr{"name", vip.FullPath})
	}

	for _, pool := range result.Pools {
		if !pool.Used {
			if opts.ShowOrphans {
				fmt.Fprintf(&buf, "# unreferenced pool: %s\n\n", pool.FullPath)
			}
			continue
		}
		e.resource(model.ResourcePool, pool.Identifier, pool.FullPath,
			attr{"name", pool.FullPath})
	}

	for _, node := range result.Nodes {
		e.resource(model.ResourceNode, node.Identifier, node.FullPath,
			attr{"name", node.FullPath})
	}

	for _, a := range result.Attachments {
		e.attachment(a)
	}

	if opts.ShowOrphans {
		for _, node := range result.Orphans.Nodes {
			fmt.Fprintf(&buf, "# unreferenced node: %s\n", node.FullPath)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

type emitter struct {
	buf  *bytes.Buffer
	opts Options
}

func (e *emitter) header(result *extract.Result) {
	fmt.Fprintf(e.buf, "# Generated by ltm-terrify from %s\n", result.Source)
	if result.Filter.Kind() != filter.KindNone {
		fmt.Fprintf(e.buf, "# Filter: %s\n", result.Filter.String())
	}
	for _, c := range result.Collisions {
		fmt.Fprintf(e.buf, "# identifier collision: %s %q taken by %s; %s declared as %q\n",
			c.Type, c.Identifier, c.Owner, c.Path, c.Resolved)
	}
	e.buf.WriteString("\n")
}

func (e *emitter) resource(rt model.ResourceType, id, path string, attrs ...attr) {
	e.block(rt, id, attrs)
	e.importDirective(rt, id, path, shellQuote(path))
	if e.opts.RewriteHints {
		fmt.Fprintf(e.buf, "#rewrite# %q => %s.%s.name\n\n", path, rt, id)
	}
}

func (e *emitter) attachment(a extract.Attachment) {
	rt := model.ResourcePoolAttachment
	e.block(rt, a.Identifier, []attr{
		{"pool", a.Pool.FullPath},
		{"node", a.NodePath},
	})

	key := attachmentKey(a.Pool.FullPath, a.NodePath)
	e.importDirective(rt, a.Identifier, key, "'"+escapeSingle(key)+"'")
}

func (e *emitter) block(rt model.ResourceType, id string, attrs []attr) {
	if !e.opts.EmitResources {
		return
	}

	width := 0
	for _, a := range attrs {
		width = max(width, len(a.key))
	}

	fmt.Fprintf(e.buf, "resource %q %q {\n", rt, id)
	for _, a := range attrs {
		fmt.Fprintf(e.buf, "  %-*s = %s\n", width, a.key, strconv.Quote(a.value))
	}
	e.buf.WriteString("}\n\n")
}

// importDirective writes key as an HCL string for block style and shellKey
// verbatim for comment style
func (e *emitter) importDirective(rt model.ResourceType, id, key, shellKey string) {
	switch e.opts.ImportStyle {
	case ImportBlock:
		fmt.Fprintf(e.buf, "import {\n  to = %s.%s\n  id = %s\n}\n\n", rt, id, strconv.Quote(key))
	default:
		fmt.Fprintf(e.buf, "#import# terraform import %s.%s %s\n\n", rt, id, shellKey)
	}
}

// attachmentKey is the import id of a pool attachment
func attachmentKey(pool, node string) string {
	return fmt.Sprintf(`{"pool": %s, "node": %s}`, strconv.Quote(pool), strconv.Quote(node))
}

// shellQuote leaves plain appliance paths alone and single-quotes anything
// a shell would split or expand
func shellQuote(s string) string {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '/' || r == '_' || r == '-' || r == '.' || r == ':' || r == '~' || r == '%':
		default:
			return "'" + escapeSingle(s) + "'"
		}
	}
	if s == "" {
		return "''"
	}
	return s
}

func escapeSingle(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '\'' {
			b.WriteString(`'\''`)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
