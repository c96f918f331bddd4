package report

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"FlowLogAnalyzer/internal/model"
)

// Publisher is the subset of a NATS connection used by NATSWriter.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSWriter publishes both reports as a single protobuf Struct message.
type NATSWriter struct {
	url     string
	conn    Publisher
	closer  func()
	subject string
}

// NewNATSWriter creates a writer for the NATS server at url. The connection is
// opened on the first Write, so an unreachable server only fails that write.
func NewNATSWriter(url, subject string) *NATSWriter {
	return &NATSWriter{url: url, subject: subject}
}

// NewNATSWriterWithPublisher uses an existing publisher.
func NewNATSWriterWithPublisher(pub Publisher, subject string) *NATSWriter {
	return &NATSWriter{conn: pub, subject: subject}
}

func (w *NATSWriter) Name() string {
	return "nats"
}

// Write publishes the snapshot and waits for the server to acknowledge the flush.
func (w *NATSWriter) Write(ctx context.Context, snapshot *model.Snapshot) error {
	payload, err := EncodeReport(snapshot)
	if err != nil {
		return err
	}
	if err := w.connect(); err != nil {
		return err
	}
	if err := w.conn.Publish(w.subject, payload); err != nil {
		return fmt.Errorf("failed to publish report to '%s': %w", w.subject, err)
	}
	if err := w.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush nats connection: %w", err)
	}
	log.WithFields(log.Fields{"subject": w.subject, "bytes": len(payload)}).Info("Published report")
	return nil
}

func (w *NATSWriter) connect() error {
	if w.conn != nil {
		return nil
	}
	nc, err := nats.Connect(w.url, nats.Name("flowlog-analyzer"))
	if err != nil {
		return fmt.Errorf("failed to connect to nats at %s: %w", w.url, err)
	}
	log.WithField("url", w.url).Info("Connected to NATS server")
	w.conn = nc
	w.closer = func() { nc.Drain() }
	return nil
}

// Close drains the connection opened by NewNATSWriter.
func (w *NATSWriter) Close() {
	if w.closer != nil {
		w.closer()
	}
}

// EncodeReport serializes the sorted reports and run statistics as a
// google.protobuf.Struct.
func EncodeReport(snapshot *model.Snapshot) ([]byte, error) {
	tags := make([]interface{}, 0, len(snapshot.TagCounts))
	for _, tc := range snapshot.SortedTags() {
		tags = append(tags, map[string]interface{}{"tag": tc.Tag, "count": tc.Count})
	}
	combos := make([]interface{}, 0, len(snapshot.PortProtocolCounts))
	for _, pc := range snapshot.SortedPortProtocols() {
		combos = append(combos, map[string]interface{}{
			"port":     pc.Key.Port,
			"protocol": pc.Key.Protocol,
			"count":    pc.Count,
		})
	}

	msg, err := structpb.NewStruct(map[string]interface{}{
		"tag_counts":           tags,
		"port_protocol_counts": combos,
		"lines_read":           snapshot.Stats.LinesRead,
		"accepted":             snapshot.Stats.Accepted,
		"skipped":              snapshot.Stats.TotalSkipped(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build report message: %w", err)
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report message: %w", err)
	}
	return data, nil
}
