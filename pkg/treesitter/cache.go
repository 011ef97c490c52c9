// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package treesitter wraps github.com/smacker/go-tree-sitter with the two
// pieces the analysis engine needs: a per-language parser cache that
// reuses parsers and caches per-file trees across the two-pass walk (C2),
// and a uniform query runner that turns a compiled query into capture
// records (C3).
package treesitter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/vitali87/codegraph/pkg/langregistry"
)

// ParseError is returned only when the grammar itself refuses the input
// (spec §4.2); syntactically broken source that tree-sitter tolerates via
// ERROR nodes is not an error at this layer.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

type cachedTree struct {
	tree *sitter.Tree
	hash string
}

// ParserCache holds one tree-sitter parser per language, reused across
// files, and caches the parsed tree for the file currently being visited
// so Pass 1 and Pass 2 of the same file share a single parse.
//
// Single-threaded cooperative, per spec §5: callers must not invoke
// Parse/Evict for the same ParserCache from multiple goroutines at once.
type ParserCache struct {
	mu      sync.Mutex
	parsers map[string]*sitter.Parser
	trees   map[string]*cachedTree
}

// NewParserCache creates an empty cache.
func NewParserCache() *ParserCache {
	return &ParserCache{
		parsers: make(map[string]*sitter.Parser),
		trees:   make(map[string]*cachedTree),
	}
}

func (c *ParserCache) parserFor(lang *langregistry.Language) *sitter.Parser {
	if p, ok := c.parsers[lang.Name]; ok {
		return p
	}
	p := sitter.NewParser()
	p.SetLanguage(lang.Grammar)
	c.parsers[lang.Name] = p
	return p
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Parse returns the cached tree for path if its content hash is
// unchanged, otherwise parses content fresh and caches the result. A
// partial tree containing ERROR nodes is returned normally; only a hard
// grammar failure returns a *ParseError.
func (c *ParserCache) Parse(ctx context.Context, lang *langregistry.Language, path string, content []byte) (*sitter.Tree, error) {
	hash := contentHash(content)

	c.mu.Lock()
	if ct, ok := c.trees[path]; ok && ct.hash == hash {
		c.mu.Unlock()
		return ct.tree, nil
	}
	parser := c.parserFor(lang)
	c.mu.Unlock()

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	if tree == nil {
		return nil, &ParseError{Path: path, Reason: "grammar returned no tree"}
	}

	c.mu.Lock()
	c.trees[path] = &cachedTree{tree: tree, hash: hash}
	c.mu.Unlock()

	return tree, nil
}

// Evict drops the cached tree for path. Called once Pass 2 (the call
// pass) for that file completes, per spec §4.2.
func (c *ParserCache) Evict(path string) {
	c.mu.Lock()
	delete(c.trees, path)
	c.mu.Unlock()
}

// CountErrors returns the number of ERROR nodes in a tree, used to decide
// whether a syntax-error warning is worth logging.
func CountErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += CountErrors(n.Child(i))
	}
	return count
}
