// Package graph is the ID-addressed projection of an expanded layout tree.
// Mount backends read it through the Graph interface; IDs are slash paths
// relative to the mount root ("my_project/src/components").
package graph

import (
	"errors"
	"io/fs"
	"path"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring"
)

var ErrNotFound = errors.New("node not found")

// Node is the universal primitive.
// The Mode field explicitly declares whether this is a file or directory.
type Node struct {
	ID       string
	Mode     fs.FileMode // fs.ModeDir for directories, 0 for regular files
	ModTime  time.Time
	Data     []byte
	Level    int      // depth in the layout tree, root = 0
	Children []string // Child node IDs (directories only)
}

// Name returns the last path element of the node's ID.
func (n *Node) Name() string {
	return path.Base(n.ID)
}

// ContentSize returns the byte length of this node's content.
func (n *Node) ContentSize() int64 {
	return int64(len(n.Data))
}

// Graph is the interface the mount layer reads from.
type Graph interface {
	GetNode(id string) (*Node, error)
	ListChildren(id string) ([]string, error)
	ReadContent(id string, buf []byte, offset int64) (int, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	roots []string

	// Level index: depth -> bitmap of internal node IDs, in insertion order.
	byLevel     map[int]*roaring.Bitmap
	nodeIntID   map[string]uint32
	intToNodeID []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:     make(map[string]*Node),
		roots:     []string{},
		byLevel:   make(map[int]*roaring.Bitmap),
		nodeIntID: make(map[string]uint32),
	}
}

// AddRoot registers a node as a top-level root and adds it to the store.
func (s *MemoryStore) AddRoot(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
	s.indexNode(n)
	for _, r := range s.roots {
		if r == n.ID {
			return
		}
	}
	s.roots = append(s.roots, n.ID)
}

// AddNode adds a non-root node to the store.
func (s *MemoryStore) AddNode(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
	s.indexNode(n)
}

// indexNode assigns an internal bitmap ID and registers the node's level.
// Must be called with s.mu held.
func (s *MemoryStore) indexNode(n *Node) {
	intID, ok := s.nodeIntID[n.ID]
	if !ok {
		intID = uint32(len(s.intToNodeID))
		s.nodeIntID[n.ID] = intID
		s.intToNodeID = append(s.intToNodeID, n.ID)
	}
	for lvl, bm := range s.byLevel {
		if lvl != n.Level {
			bm.Remove(intID)
		}
	}
	bm, exists := s.byLevel[n.Level]
	if !exists {
		bm = roaring.New()
		s.byLevel[n.Level] = bm
	}
	bm.Add(intID)
}

// AtLevel returns the nodes at depth level in the order they were added.
func (s *MemoryStore) AtLevel(level int) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bm, ok := s.byLevel[level]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		if n, ok := s.nodes[s.intToNodeID[it.Next()]]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Levels returns the number of distinct depths holding at least one node.
func (s *MemoryStore) Levels() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, bm := range s.byLevel {
		if !bm.IsEmpty() {
			count++
		}
	}
	return count
}

// Len returns the number of nodes in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// GetNode implements Graph.
func (s *MemoryStore) GetNode(id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Normalize path: remove leading slash
	if len(id) > 0 && id[0] == '/' {
		id = id[1:]
	}

	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// ListChildren implements Graph.
func (s *MemoryStore) ListChildren(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Root case
	if id == "" || id == "/" {
		return s.roots, nil
	}

	if id[0] == '/' {
		id = id[1:]
	}

	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n.Children, nil
}

// ReadContent implements Graph.
func (s *MemoryStore) ReadContent(id string, buf []byte, offset int64) (int, error) {
	node, err := s.GetNode(id)
	if err != nil {
		return 0, err
	}
	data := node.Data
	if offset >= int64(len(data)) {
		return 0, nil
	}
	end := offset + int64(len(buf))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return copy(buf, data[offset:end]), nil
}
