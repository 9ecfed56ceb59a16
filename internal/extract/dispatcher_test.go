package extract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"mcapx/internal/mcaptest"
)

// recordingExtractor captures the publish times routed to it.
type recordingExtractor struct {
	steps       []uint64
	stepErr     error
	postCalls   int
	cancelAfter int // cancel the run context after this many steps, if set
	cancel      context.CancelFunc
}

func (r *recordingExtractor) Step(msg *Message) error {
	if r.stepErr != nil {
		return r.stepErr
	}
	r.steps = append(r.steps, msg.PublishTime)
	if r.cancel != nil && len(r.steps) == r.cancelAfter {
		r.cancel()
	}
	return nil
}

func (r *recordingExtractor) PostProcess(context.Context) error {
	r.postCalls++
	return nil
}

func writeTwoFiles(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mcap")
	b := filepath.Join(dir, "b.mcap")
	mcaptest.WriteFile(t, a, []mcaptest.Msg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 5, Data: []byte{5}},
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 15, Data: []byte{15}},
	})
	mcaptest.WriteFile(t, b, []mcaptest.Msg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 10, Data: []byte{10}},
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 20, Data: []byte{20}},
	})
	return []string{a, b}
}

func TestRunWindowAcrossFiles(t *testing.T) {
	files := writeTwoFiles(t)
	rec := &recordingExtractor{}
	regs := []Registration{{Topic: "/lidar", Ext: rec}}

	err := Run(context.Background(), files, regs, Window{Start: 8, Stop: 16}, RunOptions{Log: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}

	// File order is path order, message order is stored order: 15 from the
	// first file, then 10 from the second. 20 ends the run.
	if diff := cmp.Diff([]uint64{15, 10}, rec.steps); diff != "" {
		t.Fatal(diff)
	}
	if rec.postCalls != 1 {
		t.Fatalf("PostProcess called %d times, want 1", rec.postCalls)
	}
}

func TestRunSkipsUnregisteredTopics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.mcap")
	mcaptest.WriteFile(t, path, []mcaptest.Msg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 1, Data: []byte{1}},
		{Topic: "/imu", Schema: "sensor_msgs/msg/Imu", PublishTime: 2, Data: []byte{2}},
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 3, Data: []byte{3}},
	})

	rec := &recordingExtractor{}
	regs := []Registration{{Topic: "/lidar", Ext: rec}}
	err := Run(context.Background(), []string{path}, regs, EverythingWindow(), RunOptions{Log: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{1, 3}, rec.steps); diff != "" {
		t.Fatal(diff)
	}
}

func TestRunCancellation(t *testing.T) {
	files := writeTwoFiles(t)
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recordingExtractor{cancelAfter: 1, cancel: cancel}
	regs := []Registration{{Topic: "/lidar", Ext: rec}}

	err := Run(ctx, files, regs, EverythingWindow(), RunOptions{Log: zerolog.Nop()})
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("want ErrInterrupted, got %v", err)
	}
	if len(rec.steps) != 1 {
		t.Fatalf("stepped %d times after cancellation, want 1", len(rec.steps))
	}
	if rec.postCalls != 0 {
		t.Fatal("PostProcess must not run on an interrupted run")
	}
}

func TestRunStepFailureAborts(t *testing.T) {
	files := writeTwoFiles(t)
	boom := errors.New("decode failed")
	rec := &recordingExtractor{stepErr: boom}
	regs := []Registration{{Topic: "/lidar", Ext: rec}}

	err := Run(context.Background(), files, regs, EverythingWindow(), RunOptions{Log: zerolog.Nop()})
	if !errors.Is(err, boom) {
		t.Fatalf("want step error, got %v", err)
	}
	if rec.postCalls != 0 {
		t.Fatal("PostProcess must not run after a step failure")
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: 10, Stop: 20}
	for _, tc := range []struct {
		t    uint64
		want bool
	}{
		{9, false}, {10, true}, {15, true}, {20, true}, {21, false},
	} {
		if got := w.Contains(tc.t); got != tc.want {
			t.Fatalf("Contains(%d) = %v, want %v", tc.t, got, tc.want)
		}
	}
}
