package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"go.uber.org/multierr"
)

type ExportData struct {
	Scenario   string             `json:"scenario"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Dt         float64            `json:"dt"`
	Horizon    int                `json:"horizon"`
	Steps      int                `json:"steps"`
	Failures   int                `json:"failures"`
	Times      []float64          `json:"times"`
	Targets    []dynamo.Point     `json:"targets"`
	States     [][]float64        `json:"states"`
	Controls   [][]float64        `json:"controls"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewExportData(meta RunMetadata, samples []dynamo.Sample) ExportData {
	data := ExportData{
		Scenario:   meta.Scenario,
		Integrator: meta.Integrator,
		Controller: meta.Controller,
		Dt:         meta.Dt,
		Horizon:    meta.Horizon,
		Steps:      len(samples),
		Failures:   meta.Failures,
		Times:      make([]float64, len(samples)),
		Targets:    make([]dynamo.Point, len(samples)),
		States:     make([][]float64, len(samples)),
		Controls:   make([][]float64, len(samples)),
		Metrics:    meta.Metrics,
	}

	for i, s := range samples {
		data.Times[i] = s.Time
		data.Targets[i] = s.Target
		data.States[i] = s.State
		data.Controls[i] = s.Control
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, samples []dynamo.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, samples))
}

func ExportJSONFile(name string, meta RunMetadata, samples []dynamo.Sample) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	return ExportJSON(file, meta, samples)
}
