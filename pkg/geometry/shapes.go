/*
 * Copyright 2026 The Quire Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package geometry

import (
	"math"
)

const (
	// ArrowHeadLength is the length of each arrow head segment in target
	// units (PDF points).
	ArrowHeadLength = 12.0

	// ArrowHeadHalfAngle is the angle between the shaft and each head
	// segment.
	ArrowHeadHalfAngle = math.Pi / 6

	// MinEllipseSegments is the smallest number of sides used to approximate
	// an ellipse.
	MinEllipseSegments = 64
)

// Point is a point in target space.
type Point struct {
	X float64
	Y float64
}

// Segment is a straight segment between two points.
type Segment struct {
	From Point
	To   Point
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(s.To.X-s.From.X, s.To.Y-s.From.Y)
}

// Angle returns the direction of the segment in radians.
func (s Segment) Angle() float64 {
	return math.Atan2(s.To.Y-s.From.Y, s.To.X-s.From.X)
}

// ArrowHead returns the two head segments of an arrow from -> to. Both start
// at the tip and point back along the shaft, rotated by ArrowHeadHalfAngle to
// either side.
func ArrowHead(from, to Point) [2]Segment {
	angle := math.Atan2(to.Y-from.Y, to.X-from.X)

	var head [2]Segment
	for i, side := range []float64{-1, 1} {
		a := angle + side*ArrowHeadHalfAngle
		head[i] = Segment{
			From: to,
			To: Point{
				X: to.X - ArrowHeadLength*math.Cos(a),
				Y: to.Y - ArrowHeadLength*math.Sin(a),
			},
		}
	}
	return head
}

// Ellipse returns the vertices of a polygon approximating the ellipse with
// the given center and radii. segments below MinEllipseSegments are raised to
// it.
func Ellipse(center Point, rx, ry float64, segments int) []Point {
	if segments < MinEllipseSegments {
		segments = MinEllipseSegments
	}

	points := make([]Point, segments)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		points[i] = Point{
			X: center.X + rx*math.Cos(theta),
			Y: center.Y + ry*math.Sin(theta),
		}
	}
	return points
}
