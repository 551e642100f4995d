// Package wireframe turns a grid's tree structure into line geometry.
//
// Extract walks a float grid's tree and emits the 12 world-space edges of
// every node at one exact depth. Builder composes one styled Curves group
// per depth into a renderable Group, falling back to a fixed origin gizmo
// when there is nothing to draw.
package wireframe
