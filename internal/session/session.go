// Package session holds the live editing state of one layout buffer: its
// text and the tree expanded from it. Text edits re-parse; tree edits
// re-serialize. Each change publishes a new immutable Snapshot.
package session

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/commonlog"

	"github.com/agentic-research/quickdir/internal/rules"
	"github.com/agentic-research/quickdir/internal/tree"
)

var log = commonlog.GetLogger("quickdir.session")

// DefaultCacheSize is the number of parsed buffers kept by a Session.
const DefaultCacheSize = 128

// ErrNoTree is returned by tree edits while the buffer does not parse.
var ErrNoTree = errors.New("no tree: the buffer has no root declaration")

// Snapshot is one published state. It is never modified after publication.
type Snapshot struct {
	Version uint64
	Text    string
	Tree    *tree.Node
	Rules   *rules.RuleSet
	Cycles  []tree.Cycle
}

// Status describes the snapshot the way the editor's status line does.
func (s *Snapshot) Status() string {
	if s.Tree == nil {
		return "Failed to parse tree structure"
	}
	return fmt.Sprintf("Tree parsed successfully: Root is '%s' with %d children", s.Tree.Name, len(s.Tree.Children))
}

type parsed struct {
	rules  *rules.RuleSet
	tree   *tree.Node
	cycles []tree.Cycle
}

// Session serializes edits to a single buffer.
type Session struct {
	mu      sync.Mutex
	current *Snapshot
	cache   *lru.Cache[string, parsed]

	// pubMu keeps deliveries in version order without holding mu.
	pubMu  sync.Mutex
	subMu  sync.Mutex
	subs   map[int]func(*Snapshot)
	nextID int
}

// New returns a session holding text. cacheSize <= 0 uses DefaultCacheSize.
func New(text string, cacheSize int) (*Session, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, parsed](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	s := &Session{
		cache: cache,
		subs:  make(map[int]func(*Snapshot)),
	}
	p := s.parse(text)
	s.current = &Snapshot{Version: 1, Text: text, Tree: p.tree, Rules: p.rules, Cycles: p.cycles}
	return s, nil
}

// Current returns the latest snapshot.
func (s *Session) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn to receive every snapshot published after the call.
// fn runs on the publishing goroutine and must not call back into the
// session's edit methods. The returned function unregisters fn.
func (s *Session) Subscribe(fn func(*Snapshot)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// SetText replaces the buffer and re-parses it.
func (s *Session) SetText(text string) *Snapshot {
	p := s.parse(text)

	s.mu.Lock()
	if text == s.current.Text {
		snap := s.current
		s.mu.Unlock()
		return snap
	}
	return s.commit(&Snapshot{Text: text, Tree: p.tree, Rules: p.rules, Cycles: p.cycles})
}

// Rename renames the node at addr.
func (s *Session) Rename(addr tree.Address, newName string) (*Snapshot, error) {
	return s.edit(func(root *tree.Node) (*tree.Node, error) {
		return tree.Rename(root, addr, newName)
	})
}

// Delete removes the node at addr.
func (s *Session) Delete(addr tree.Address) (*Snapshot, error) {
	return s.edit(func(root *tree.Node) (*tree.Node, error) {
		return tree.Delete(root, addr)
	})
}

// Add creates a node of kind under parent and returns its generated name.
func (s *Session) Add(parent tree.Address, kind tree.Kind) (*Snapshot, string, error) {
	var name string
	snap, err := s.edit(func(root *tree.Node) (*tree.Node, error) {
		out, n, err := tree.Add(root, parent, kind)
		name = n
		return out, err
	})
	return snap, name, err
}

// Move re-parents the subtree at src under dst.
func (s *Session) Move(src, dst tree.Address) (*Snapshot, error) {
	return s.edit(func(root *tree.Node) (*tree.Node, error) {
		return tree.Move(root, src, dst)
	})
}

// edit applies fn to the current tree and publishes the tree expanded from
// the edited tree's canonical text, so Tree and Text always agree. An edit
// that leaves the text unchanged publishes nothing and returns the current
// snapshot.
func (s *Session) edit(fn func(*tree.Node) (*tree.Node, error)) (*Snapshot, error) {
	s.mu.Lock()
	cur := s.current
	if cur.Tree == nil {
		s.mu.Unlock()
		return cur, ErrNoTree
	}
	root, err := fn(cur.Tree)
	if err != nil || root == cur.Tree {
		s.mu.Unlock()
		return cur, err
	}
	text := tree.Serialize(root)
	if text == cur.Text {
		s.mu.Unlock()
		return cur, nil
	}
	p := s.parse(text)
	return s.commit(&Snapshot{Text: text, Tree: p.tree, Rules: p.rules, Cycles: p.cycles}), nil
}

// commit installs next as the current snapshot and delivers it to
// subscribers. It must be called with s.mu held and releases it.
func (s *Session) commit(next *Snapshot) *Snapshot {
	next.Version = s.current.Version + 1
	s.current = next
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	log.Debugf("snapshot %d: %s", next.Version, next.Status())
	s.publish(next)
	return next
}

func (s *Session) publish(snap *Snapshot) {
	s.subMu.Lock()
	fns := make([]func(*Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Session) parse(text string) parsed {
	if p, ok := s.cache.Get(text); ok {
		return p
	}
	rs := rules.Read(text)
	root, cycles := tree.Expand(rs)
	p := parsed{rules: rs, tree: root, cycles: cycles}
	s.cache.Add(text, p)
	return p
}
