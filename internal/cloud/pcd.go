package cloud

import (
	"bufio"
	"fmt"
	"io"
)

// Point is one structured output record: spatial position plus intensity,
// all 32-bit floats as in the PCD schema written for every cloud message.
type Point struct {
	X, Y, Z   float32
	Intensity float32
}

// WritePCD writes points as an ASCII PCD v0.7 file with the fixed
// x/y/z/intensity schema, sized by the cloud's width and height.
func WritePCD(w io.Writer, width, height uint32, points []Point) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# .PCD v0.7 - Point Cloud Data file format")
	fmt.Fprintln(bw, "VERSION 0.7")
	fmt.Fprintln(bw, "FIELDS x y z intensity")
	fmt.Fprintln(bw, "SIZE 4 4 4 4")
	fmt.Fprintln(bw, "TYPE F F F F")
	fmt.Fprintln(bw, "COUNT 1 1 1 1")
	fmt.Fprintf(bw, "WIDTH %d\n", width)
	fmt.Fprintf(bw, "HEIGHT %d\n", height)
	fmt.Fprintln(bw, "VIEWPOINT 0 0 0 1 0 0 0")
	fmt.Fprintf(bw, "POINTS %d\n", len(points))
	fmt.Fprintln(bw, "DATA ascii")

	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "%g %g %g %g\n", p.X, p.Y, p.Z, p.Intensity); err != nil {
			return fmt.Errorf("cloud: write pcd record: %w", err)
		}
	}
	return bw.Flush()
}
