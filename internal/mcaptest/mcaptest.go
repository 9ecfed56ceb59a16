// Package mcaptest writes small MCAP fixture files for tests.
package mcaptest

import (
	"os"
	"testing"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/stretchr/testify/require"
)

// Msg is one recorded message. Messages sharing a Topic share a channel;
// topics sharing a Schema share a schema record.
type Msg struct {
	Topic       string
	Schema      string
	PublishTime uint64
	Data        []byte
}

// WriteFile writes msgs to path in recording order, with a full summary
// section including per-channel message counts.
func WriteFile(t *testing.T, path string, msgs []Msg) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := mcap.NewWriter(f, &mcap.WriterOptions{
		Chunked:   true,
		ChunkSize: 1024,
	})
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(&mcap.Header{Profile: "ros2"}))

	schemaIDs := make(map[string]uint16)
	channelIDs := make(map[string]uint16)
	for _, m := range msgs {
		schemaID, ok := schemaIDs[m.Schema]
		if !ok {
			schemaID = uint16(len(schemaIDs) + 1)
			require.NoError(t, w.WriteSchema(&mcap.Schema{
				ID:       schemaID,
				Name:     m.Schema,
				Encoding: "ros2msg",
			}))
			schemaIDs[m.Schema] = schemaID
		}

		chID, ok := channelIDs[m.Topic]
		if !ok {
			chID = uint16(len(channelIDs))
			require.NoError(t, w.WriteChannel(&mcap.Channel{
				ID:              chID,
				SchemaID:        schemaID,
				Topic:           m.Topic,
				MessageEncoding: "cdr",
			}))
			channelIDs[m.Topic] = chID
		}

		require.NoError(t, w.WriteMessage(&mcap.Message{
			ChannelID:   chID,
			LogTime:     m.PublishTime,
			PublishTime: m.PublishTime,
			Data:        m.Data,
		}))
	}
	require.NoError(t, w.Close())
}
