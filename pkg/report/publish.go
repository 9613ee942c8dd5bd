package report

import (
	"bytes"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/scttfrdmn/magclass-go/internal/logger"
	"github.com/scttfrdmn/magclass-go/pkg/mags"
	"github.com/scttfrdmn/magclass-go/pkg/storage"
)

// Files names the outputs written to the output directory.
type Files struct {
	Candidates string
	Comparison string
	Better     string
	Table      string
	Manifest   string
}

// Publisher renders outputs and writes them through a Storage backend,
// compressing by file suffix.
type Publisher struct {
	store  storage.Storage
	header bool
}

// NewPublisher writes into store. header toggles header rows of tabular
// outputs that carry one.
func NewPublisher(store storage.Storage, header bool) *Publisher {
	return &Publisher{store: store, header: header}
}

// Write renders one output and stores it under name.
func (p *Publisher) Write(name string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	if err := storage.WriteCompressed(p.store, name, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s/%s: %w", p.store.GetBasePath(), name, err)
	}
	logger.Debug("Wrote output",
		zap.String("dir", p.store.GetBasePath()),
		zap.String("file", name),
		zap.Int("bytes", buf.Len()))
	return nil
}

// Publish writes every tabular output of res and the run manifest.
// withAssembly adds the assembly columns to the classification table.
func (p *Publisher) Publish(files Files, res *mags.Result, m *Manifest, withAssembly bool) error {
	if err := p.store.MkdirAll(); err != nil {
		return fmt.Errorf("create %s: %w", p.store.GetBasePath(), err)
	}

	if m.Outputs == nil {
		m.Outputs = make(map[string]string)
	}
	m.Outputs["candidates"] = files.Candidates
	m.Outputs["comparison"] = files.Comparison
	m.Outputs["better"] = files.Better
	m.Outputs["table"] = files.Table

	outputs := []struct {
		name   string
		render func(io.Writer) error
	}{
		{files.Candidates, func(w io.Writer) error {
			return WriteCandidates(w, res.CandidateGenomes)
		}},
		{files.Comparison, func(w io.Writer) error {
			return WriteComparisons(w, res.Comparisons, p.header)
		}},
		{files.Better, func(w io.Writer) error {
			return WriteBetter(w, res.Comparisons, p.header)
		}},
		{files.Table, func(w io.Writer) error {
			return WriteClassification(w, res.Table, p.header, withAssembly)
		}},
		{files.Manifest, func(w io.Writer) error {
			data, err := m.Marshal()
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		}},
	}

	for _, o := range outputs {
		if o.name == "" {
			continue
		}
		if err := p.Write(o.name, o.render); err != nil {
			return err
		}
	}
	return nil
}
