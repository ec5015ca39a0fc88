// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

// Well-known socket names. A Part exposes at most one socket per name;
// Connect/validateConnection only checks Type, so these names are the
// convention the evaluator's modulator-chain and link-resolution walks
// rely on to pick the right connection among several on one Part.
const (
	SocketNameTriggerOut = "trigger_out"
	SocketNameTriggerIn  = "trigger_in"
	SocketNameLinkOut    = "link_out"
	SocketNameLinkIn     = "link_in"
	SocketNameMediaOut   = "media_out"
	SocketNameMediaIn    = "media_in"
	SocketNameMaskOut    = "mask_out"
	SocketNameMaskIn     = "mask_in"
	SocketNameLayerIn    = "layer_in"
	SocketNameOutputIn   = "output_in"
)

// IncomingTo returns the connection whose To socket matches (part, name,
// typ), or nil if none is connected. Since each input socket accepts at
// most one connection (enforced by Connect), this is always unambiguous.
func IncomingTo(conns []Connection, part ID, name string, typ SocketType) *Connection {
	for i := range conns {
		c := &conns[i]
		if c.To.Part == part && c.To.Name == name && c.To.Type == typ {
			return c
		}
	}
	return nil
}

// OutgoingFrom returns every connection whose From socket matches
// (part, name, typ); an output socket may fan out to many inputs.
func OutgoingFrom(conns []Connection, part ID, name string, typ SocketType) []Connection {
	var out []Connection
	for _, c := range conns {
		if c.From.Part == part && c.From.Name == name && c.From.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// socketTypeByName resolves a well-known socket name to its Type, for
// callers (like FromDocument) that only have the persisted name string
// and need to fill in Socket.Type before calling Connect.
var socketTypeByName = map[string]SocketType{
	SocketNameTriggerOut: SocketTrigger,
	SocketNameTriggerIn:  SocketTrigger,
	SocketNameLinkOut:    SocketLink,
	SocketNameLinkIn:     SocketLink,
	SocketNameMediaOut:   SocketMedia,
	SocketNameMediaIn:    SocketMedia,
	SocketNameMaskOut:    SocketMask,
	SocketNameMaskIn:     SocketMask,
	SocketNameLayerIn:    SocketLayer,
	SocketNameOutputIn:   SocketOutput,
}

// SocketTypeByName returns the Type a well-known socket name implies,
// and false if name isn't one of the well-known names.
func SocketTypeByName(name string) (SocketType, bool) {
	t, ok := socketTypeByName[name]
	return t, ok
}
