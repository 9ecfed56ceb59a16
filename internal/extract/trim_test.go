package extract

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"mcapx/internal/mcaptest"
)

type trimmedMsg struct {
	Topic       string
	Schema      string
	PublishTime uint64
}

func readAllMessages(t *testing.T, path string) []trimmedMsg {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	reader, err := mcap.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	it, err := reader.Messages(mcap.UsingIndex(false))
	if err != nil {
		t.Fatal(err)
	}

	var out []trimmedMsg
	for {
		schema, channel, msg, err := it.Next(nil)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatal(err)
		}
		m := trimmedMsg{Topic: channel.Topic, PublishTime: msg.PublishTime}
		if schema != nil {
			m.Schema = schema.Name
		}
		out = append(out, m)
	}
}

func TestTrimEverythingKeepsAllMessages(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mcap")
	mcaptest.WriteFile(t, in, []mcaptest.Msg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 1, Data: []byte{1}},
		{Topic: "/cam", Schema: "sensor_msgs/msg/CompressedImage", PublishTime: 2, Data: []byte{2}},
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 3, Data: []byte{3}},
	})

	out := filepath.Join(dir, "out.mcap")
	if err := Trim(context.Background(), []string{in}, out, EverythingWindow(), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	want := []trimmedMsg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 1},
		{Topic: "/cam", Schema: "sensor_msgs/msg/CompressedImage", PublishTime: 2},
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 3},
	}
	if diff := cmp.Diff(want, readAllMessages(t, out)); diff != "" {
		t.Fatal(diff)
	}
}

func TestTrimWindow(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mcap")
	mcaptest.WriteFile(t, in, []mcaptest.Msg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 5, Data: []byte{5}},
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 10, Data: []byte{10}},
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 15, Data: []byte{15}},
	})

	out := filepath.Join(dir, "out.mcap")
	if err := Trim(context.Background(), []string{in}, out, Window{Start: 6, Stop: 12}, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	got := readAllMessages(t, out)
	if len(got) != 1 || got[0].PublishTime != 10 {
		t.Fatalf("trimmed messages = %+v, want only publish time 10", got)
	}
}

func TestTrimRemapsChannelIDsAcrossFiles(t *testing.T) {
	// Channel id 0 means different topics in the two inputs; the merged
	// output must keep them distinct.
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mcap")
	b := filepath.Join(dir, "b.mcap")
	mcaptest.WriteFile(t, a, []mcaptest.Msg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 1, Data: []byte{1}},
	})
	mcaptest.WriteFile(t, b, []mcaptest.Msg{
		{Topic: "/cam", Schema: "sensor_msgs/msg/CompressedImage", PublishTime: 2, Data: []byte{2}},
	})

	out := filepath.Join(dir, "out.mcap")
	if err := Trim(context.Background(), []string{a, b}, out, EverythingWindow(), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	want := []trimmedMsg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 1},
		{Topic: "/cam", Schema: "sensor_msgs/msg/CompressedImage", PublishTime: 2},
	}
	if diff := cmp.Diff(want, readAllMessages(t, out)); diff != "" {
		t.Fatal(diff)
	}
}

func TestTrimCancellationLeavesReadableFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mcap")
	mcaptest.WriteFile(t, in, []mcaptest.Msg{
		{Topic: "/lidar", Schema: "sensor_msgs/msg/PointCloud2", PublishTime: 1, Data: []byte{1}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(dir, "out.mcap")
	err := Trim(ctx, []string{in}, out, EverythingWindow(), zerolog.Nop())
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("want ErrInterrupted, got %v", err)
	}

	// The writer is finalized on cancellation, so the truncated output is
	// still structurally valid.
	if got := readAllMessages(t, out); len(got) != 0 {
		t.Fatalf("cancelled trim wrote %d messages, want 0", len(got))
	}
}
