// Package paramtree implements the compile-time-constant OSC address
// tree: the bidirectional binding between an OSC address and the
// device register(s)/coder(s) that implement it.
package paramtree

import "strings"

// Wildcard is the only wildcard segment paramtree understands: it
// matches any child of its parent, one level at a time.
const Wildcard = "*"

// Kind names a coder family from spec.md §4.2. A node's inbound and
// outbound coder are the mirror halves of the same Kind (e.g. Kind
// "fixed" drives both the inbound "fixed" coder and the outbound
// "newfixed" coder) — the translation direction is supplied by which
// engine function is called, not by separate fields.
type Kind string

const (
	KindNone             Kind = ""
	KindInt              Kind = "int"
	KindFixed            Kind = "fixed"
	KindEnum             Kind = "enum"
	KindBool             Kind = "bool"
	KindRefresh          Kind = "refresh"
	KindInputStereo      Kind = "inputstereo"
	KindOutputStereo     Kind = "outputstereo"
	KindInputGain        Kind = "inputgain"
	KindMix              Kind = "mix"
	KindMixPan           Kind = "mixpan"
	KindSampleRate       Kind = "samplerate"
	KindClockSource      Kind = "clocksource"
	KindDSPLoad          Kind = "dspload"
	KindDSPVersion       Kind = "dspversion"
	KindInput48vRefLevel Kind = "input48v_reflevel"
	KindInputHiZ         Kind = "inputhiz"
	KindNamePacked       Kind = "name"
	KindDurecTransport   Kind = "durectransport"
	KindDurecFile        Kind = "durecfile"
	KindDurecDelete      Kind = "durecdelete"
	KindDurecPlaymode    Kind = "durecplaymode"
	KindDurecStatus      Kind = "durecstatus"
	KindLevel            Kind = "level"
	KindErrorsLast       Kind = "errorslast"
	KindReadOnlyString   Kind = "readonlystring"
)

// Node is one immutable node of the address tree.
type Node struct {
	Segment  string
	Register uint16 // 0 if this node is an interior grouping only
	Kind     Kind
	Data     *CoderData
	Children []*Node
}

// CoderData is the coder-specific configuration block: min/max/scale
// for fixed-point nodes, an ordered enum label table for enumerations,
// or nested data for compound coders (e.g. the mixer node's per-send
// cell layout).
type CoderData struct {
	Min, Max int
	Scale    float64
	Labels   []string
	// Extra carries coder-specific payloads that don't fit the common
	// shape above (e.g. capability-flag requirements).
	Extra interface{}
}

// Match is one step of a resolved traversal: the node reached, and,
// for wildcard segments, the concrete index the caller used for it.
// This replaces the teacher-style pointer-path arithmetic the spec
// calls out in §9 with an explicit, inspectable structure.
type Match struct {
	Node  *Node
	Index int // 0 for non-wildcard segments; 0-based for wildcard segments
}

// Resolve splits an OSC address on '/' and descends the tree,
// preferring an exact child-name match over a wildcard match at each
// level. It returns the full traversal (excluding the anonymous root)
// or ok=false if any segment has no match.
func (root *Node) Resolve(address string) (path []Match, ok bool) {
	segments := splitAddress(address)
	node := root
	for _, seg := range segments {
		child, index, found := node.matchChild(seg)
		if !found {
			return nil, false
		}
		path = append(path, Match{Node: child, Index: index})
		node = child
	}
	return path, true
}

func splitAddress(address string) []string {
	trimmed := strings.Trim(address, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// matchChild finds the child matching seg: an exact name match wins
// over a wildcard match. For a wildcard match, index is the 0-based
// position of seg among siblings reachable through that wildcard
// (i.e. the 1-based external channel number, minus one).
func (n *Node) matchChild(seg string) (child *Node, index int, found bool) {
	for _, c := range n.Children {
		if c.Segment == seg {
			return c, 0, true
		}
	}
	for _, c := range n.Children {
		if c.Segment == Wildcard {
			idx, ok := parsePositiveIndex(seg)
			if !ok {
				return nil, 0, false
			}
			return c, idx - 1, true
		}
	}
	return nil, 0, false
}

func parsePositiveIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	n := 0
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// Leaf reports whether a Match's node has no children. A node with
// children (such as the mix send wildcard, parent of "pan") is not a
// leaf even when it carries a Kind of its own.
func (m Match) Leaf() bool {
	return len(m.Node.Children) == 0
}
