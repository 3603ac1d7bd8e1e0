package grading

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/darasa/core"
)

type scalesFile struct {
	Scales []Scale `yaml:"scales"`
}

// LoadScales decodes a YAML document of the form:
//
//	scales:
//	  - id: honors
//	    name: Honors
//	    bands:
//	      - {label: H, min: 85, max: 100, gpa: 5}
//	      - {label: P, min: 0, max: 85, gpa: 2}
//
// Every scale is checked with Scale.CheckBands; the first defect aborts the load.
func LoadScales(r io.Reader) ([]Scale, error) {
	var file scalesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding scales")
	}

	seen := make(map[string]bool, len(file.Scales))
	for i := range file.Scales {
		s := &file.Scales[i]
		s.ID = core.CleanString(s.ID, true /* lower */)
		s.Name = core.CleanString(s.Name)
		if s.ID == "" {
			return nil, errors.Errorf("scale #%d: missing id", i+1)
		}
		if seen[s.ID] {
			return nil, errors.Errorf("scale %q: defined twice", s.ID)
		}
		seen[s.ID] = true
		if s.Name == "" {
			s.Name = s.ID
		}
		if err := s.CheckBands(); err != nil {
			return nil, errors.Wrapf(err, "scale %q", s.ID)
		}
	}
	return file.Scales, nil
}

func LoadScalesFile(path string) ([]Scale, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening scales file")
	}
	defer func() { _ = f.Close() }()
	return LoadScales(f)
}
