// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

import "fmt"

// Socket is one named, typed connection point on a Part.
type Socket struct {
	Part ID
	Name string
	Type SocketType
}

// Connection binds an output socket on one Part to an input socket on
// another (§3). Validated by (*Builder).Connect.
type Connection struct {
	From Socket
	To   Socket
}

// IntegrityError reports a graph-integrity violation (§7
// GraphIntegrityError): a cycle, a type-mismatched connection, or a
// dangling reference. The evaluator ignores the mutation and reuses
// the previous valid program; the editor is expected to surface this
// to the user.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string { return "graph integrity: " + e.Reason }

// validateConnection checks the §3 connection invariants that don't
// require the whole graph (type match, Link is Master->Slave only).
// Cycle detection happens once, graph-wide, in topologicalOrder.
func validateConnection(parts map[ID]*Part, c Connection) error {
	from, ok := parts[c.From.Part]
	if !ok {
		return &IntegrityError{Reason: fmt.Sprintf("dangling from-part %d", c.From.Part)}
	}
	to, ok := parts[c.To.Part]
	if !ok {
		return &IntegrityError{Reason: fmt.Sprintf("dangling to-part %d", c.To.Part)}
	}
	if c.From.Type != c.To.Type {
		return &IntegrityError{Reason: fmt.Sprintf("socket type mismatch: %v -> %v", c.From.Type, c.To.Type)}
	}
	if c.From.Type == SocketLink {
		if from.LinkMode != LinkMaster || to.LinkMode != LinkSlave {
			return &IntegrityError{Reason: "link sockets connect only Master -> Slave"}
		}
	}
	return nil
}
