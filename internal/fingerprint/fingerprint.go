// Package fingerprint hashes rendered schema text block by block and folds
// the block hashes into a merkle root, so two schema files can be compared
// cheaply and differences traced to individual models and columns.
package fingerprint

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/cbergoon/merkletree"

	"github.com/hlop3z/eavforge/internal/alerr"
)

// Fingerprint is the merkle root of a schema plus its per-block hashes.
type Fingerprint struct {
	Root   string
	Blocks map[string]*BlockHash // Keyed by "kind name", e.g. "model Post"
	Order  []string              // Block keys in document order
}

// BlockHash is the hash of one top-level block.
type BlockHash struct {
	Kind    string
	Name    string
	Hash    string
	Columns map[string]string // Column name -> hash of its line
	Lines   int
}

// Key returns the identifier used in Fingerprint.Blocks.
func (b *BlockHash) Key() string {
	return b.Kind + " " + b.Name
}

// Keys returns block keys in sorted order.
func (f *Fingerprint) Keys() []string {
	keys := make([]string, 0, len(f.Blocks))
	for k := range f.Blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Models counts model blocks.
func (f *Fingerprint) Models() int {
	n := 0
	for _, b := range f.Blocks {
		if b.Kind == "model" {
			n++
		}
	}
	return n
}

// blockContent implements merkletree.Content for block-level hashing.
type blockContent struct {
	key  string
	hash string
}

func (b blockContent) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(b.key + "|" + b.hash))
	return h[:], nil
}

func (b blockContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(blockContent)
	if !ok {
		return false, nil
	}
	return b.key == o.key && b.hash == o.hash, nil
}

var (
	blockStartRe = regexp.MustCompile(`^(model|datasource|generator|enum|view|type)\s+(\w+)\s*\{\s*$`)
	columnNameRe = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s+\S`)
)

// Compute fingerprints rendered schema text. Comment lines and blank lines
// outside blocks do not contribute; lines inside a block do, with
// surrounding whitespace trimmed. Leaves follow document order, so moving
// a block changes the root.
func Compute(text string) (*Fingerprint, error) {
	blocks := split(text)
	f := &Fingerprint{Blocks: make(map[string]*BlockHash, len(blocks))}
	for _, b := range blocks {
		f.Blocks[b.Key()] = b
		f.Order = append(f.Order, b.Key())
	}

	if len(blocks) == 0 {
		f.Root = emptyHash()
		return f, nil
	}

	contents := make([]merkletree.Content, 0, len(blocks))
	for _, b := range blocks {
		contents = append(contents, blockContent{key: b.Key(), hash: b.Hash})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to build merkle tree")
	}
	f.Root = hex.EncodeToString(tree.MerkleRoot())
	return f, nil
}

func split(text string) []*BlockHash {
	var (
		blocks []*BlockHash
		cur    *BlockHash
		body   []string
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if cur == nil {
			if m := blockStartRe.FindStringSubmatch(line); m != nil {
				cur = &BlockHash{Kind: m[1], Name: m[2], Columns: map[string]string{}}
				body = []string{line}
			}
			continue
		}

		if line == "}" {
			body = append(body, line)
			cur.Hash = hashString(strings.Join(body, "\n"))
			blocks = append(blocks, cur)
			cur = nil
			continue
		}
		if line == "" {
			continue
		}

		body = append(body, line)
		cur.Lines++
		if cur.Kind == "model" && !strings.HasPrefix(line, "//") && !strings.HasPrefix(line, "@@") {
			if m := columnNameRe.FindStringSubmatch(line); m != nil {
				cur.Columns[m[1]] = hashString(line)
			}
		}
	}
	return blocks
}

// hashString computes SHA256 hash of a string and returns hex encoding.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// emptyHash returns a consistent hash for empty schemas.
func emptyHash() string {
	return hashString("empty_schema")
}

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

// Comparison is the result of comparing two fingerprints.
type Comparison struct {
	Match        bool
	ExpectedRoot string
	ActualRoot   string
	Diffs        map[string]*BlockDiff // Blocks present in both but different
	Missing      []string              // In expected, not in actual
	Extra        []string              // In actual, not in expected
	Reordered    bool                  // Same blocks, different order
}

// BlockDiff lists column-level differences within one block.
type BlockDiff struct {
	Key             string
	MissingColumns  []string
	ExtraColumns    []string
	ModifiedColumns []string
}

// Changed returns the keys of differing blocks in sorted order.
func (c *Comparison) Changed() []string {
	keys := make([]string, 0, len(c.Diffs))
	for k := range c.Diffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Compare reports how actual differs from expected.
func Compare(expected, actual *Fingerprint) *Comparison {
	result := &Comparison{
		Match:        expected.Root == actual.Root,
		ExpectedRoot: expected.Root,
		ActualRoot:   actual.Root,
		Diffs:        make(map[string]*BlockDiff),
	}
	if result.Match {
		return result
	}

	for key, exp := range expected.Blocks {
		act, ok := actual.Blocks[key]
		if !ok {
			result.Missing = append(result.Missing, key)
			continue
		}
		if exp.Hash != act.Hash {
			result.Diffs[key] = compareBlocks(exp, act)
		}
	}
	for key := range actual.Blocks {
		if _, ok := expected.Blocks[key]; !ok {
			result.Extra = append(result.Extra, key)
		}
	}
	sort.Strings(result.Missing)
	sort.Strings(result.Extra)
	result.Reordered = len(result.Diffs) == 0 && len(result.Missing) == 0 &&
		len(result.Extra) == 0 && !slices.Equal(expected.Order, actual.Order)
	return result
}

func compareBlocks(expected, actual *BlockHash) *BlockDiff {
	diff := &BlockDiff{Key: expected.Key()}

	for name, hash := range expected.Columns {
		actualHash, ok := actual.Columns[name]
		if !ok {
			diff.MissingColumns = append(diff.MissingColumns, name)
		} else if hash != actualHash {
			diff.ModifiedColumns = append(diff.ModifiedColumns, name)
		}
	}
	for name := range actual.Columns {
		if _, ok := expected.Columns[name]; !ok {
			diff.ExtraColumns = append(diff.ExtraColumns, name)
		}
	}

	sort.Strings(diff.MissingColumns)
	sort.Strings(diff.ExtraColumns)
	sort.Strings(diff.ModifiedColumns)
	return diff
}
