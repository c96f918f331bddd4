package report

import (
	"FlowLogAnalyzer/internal/config"
	"FlowLogAnalyzer/internal/factory"
	"FlowLogAnalyzer/internal/model"
)

// --- Factory Registration ---

func init() {
	factory.RegisterWriter("summary", func(def config.WriterDef) (model.Writer, error) {
		return NewSummaryWriter(def.Summary.Path), nil
	})
	factory.RegisterWriter("nats", func(def config.WriterDef) (model.Writer, error) {
		return NewNATSWriter(def.NATS.URL, def.NATS.Subject), nil
	})
}
