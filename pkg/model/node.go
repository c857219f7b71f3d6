// Package model defines the mind-map node, its attributes and the portable
// record shape used for persistence.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RootKey is the reserved key of the unique root node.
const RootKey = 0

// NoParent is the Parent value of the root.
const NoParent = -1

// Direction assigns a branch to one side of the root.
type Direction string

const (
	DirNone  Direction = ""
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// ParseDirection converts a record value into a Direction.
// The empty string maps to DirNone.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirNone:
		return DirNone, nil
	case DirLeft:
		return DirLeft, nil
	case DirRight:
		return DirRight, nil
	default:
		return DirNone, fmt.Errorf("invalid direction %q (want left or right)", s)
	}
}

// IsValid reports whether d is a side a non-root node may take.
func (d Direction) IsValid() bool {
	return d == DirLeft || d == DirRight
}

// Angle returns the layout angle in degrees for the side.
// Right (and none) grow at 0 degrees, left grows at 180.
func (d Direction) Angle() float64 {
	if d == DirLeft {
		return 180
	}
	return 0
}

// Opposite returns the other side. DirNone has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	}
	return DirNone
}

// LocPrecision is the number of decimals written for coordinates.
const LocPrecision = 2

// Point is a 2-D location.
type Point struct {
	X float64
	Y float64
}

// String formats the point as "x y" with LocPrecision decimals.
func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'f', LocPrecision, 64) + " " +
		strconv.FormatFloat(p.Y, 'f', LocPrecision, 64)
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale returns p multiplied by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// ParsePoint parses "x y".
func ParsePoint(s string) (Point, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Point{}, fmt.Errorf("missing location")
	}
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("invalid location %q: want two numbers", s)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid location x %q: %w", fields[0], err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid location y %q: %w", fields[1], err)
	}
	return Point{X: x, Y: y}, nil
}

// Node is a single mind-map entry. Parent is meaningful only when
// Key != RootKey.
type Node struct {
	Key    int
	Parent int
	Text   string
	Scale  float64
	Font   string
	Brush  string
	Dir    Direction
	Loc    Point
}

// IsRoot reports whether n is the root.
func (n Node) IsRoot() bool {
	return n.Key == RootKey
}

// Attrs are the caller-supplied attributes of a node being added.
// Empty Brush and DirNone are inherited from the parent.
type Attrs struct {
	Text  string
	Scale float64
	Font  string
	Brush string
	Dir   Direction
	Loc   Point
}

// DefaultScale is the scale of nodes created without one.
const DefaultScale = 1.0
