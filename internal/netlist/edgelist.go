package netlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const nodesHeader = "# nodes"

// Structure is the name-free topology of a network: dense node ids in
// construction order and producer -> consumer edges between them.
type Structure struct {
	Nodes int
	Edges []Edge
}

// Structure returns the persisted view of n.
func (n *Network) Structure() Structure {
	return Structure{Nodes: len(n.nodes), Edges: n.Edges()}
}

// Consumers returns the per-node consumer id, -1 where a node has none.
func (s Structure) Consumers() []int {
	out := make([]int, s.Nodes)
	for i := range out {
		out[i] = noConsumer
	}
	for _, e := range s.Edges {
		out[e.From] = e.To
	}
	return out
}

// WriteEdgeList writes s as one "<src> <dst>" line per edge. A leading
// comment records the node count so isolated nodes survive a round trip.
func WriteEdgeList(w io.Writer, s Structure) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s %d\n", nodesHeader, s.Nodes); err != nil {
		return err
	}
	for _, e := range s.Edges {
		if _, err := fmt.Fprintf(bw, "%d %d\n", e.From, e.To); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadEdgeList parses an edge list. Without a node-count header the count
// is one past the highest id seen. A producer listed twice is rejected.
func ReadEdgeList(r io.Reader) (Structure, error) {
	var s Structure
	declared := -1
	maxID := -1
	consumed := make(map[int]bool)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if rest, ok := strings.CutPrefix(text, nodesHeader); ok {
				count, err := strconv.Atoi(strings.TrimSpace(rest))
				if err != nil || count < 0 {
					return Structure{}, fmt.Errorf("edge list line %d: invalid node count %q", line, rest)
				}
				declared = count
			}
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return Structure{}, fmt.Errorf("edge list line %d: expected \"<src> <dst>\", got %q", line, text)
		}
		from, err := strconv.Atoi(fields[0])
		if err != nil || from < 0 {
			return Structure{}, fmt.Errorf("edge list line %d: invalid source %q", line, fields[0])
		}
		to, err := strconv.Atoi(fields[1])
		if err != nil || to < 0 {
			return Structure{}, fmt.Errorf("edge list line %d: invalid destination %q", line, fields[1])
		}
		if consumed[from] {
			return Structure{}, constructionErr(strconv.Itoa(from), ErrFanOut, "edge list line %d", line)
		}
		consumed[from] = true
		s.Edges = append(s.Edges, Edge{From: from, To: to})
		maxID = max(maxID, from, to)
	}
	if err := scanner.Err(); err != nil {
		return Structure{}, fmt.Errorf("read edge list: %w", err)
	}
	s.Nodes = maxID + 1
	if declared >= 0 {
		if declared <= maxID {
			return Structure{}, fmt.Errorf("edge list references node %d but declares %d nodes", maxID, declared)
		}
		s.Nodes = declared
	}
	return s, nil
}

// SaveEdgeList writes the structure of n to path, creating parent
// directories as needed.
func SaveEdgeList(path string, n *Network) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteEdgeList(f, n.Structure()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadEdgeList reads a structure previously written by SaveEdgeList.
func LoadEdgeList(path string) (Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return Structure{}, err
	}
	defer f.Close()
	return ReadEdgeList(f)
}
