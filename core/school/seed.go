package school

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ReadData decodes reference data in the seed file format. Unknown keys are rejected.
func ReadData(r io.Reader) (Data, error) {
	var data Data
	dec := yaml.NewDecoder(r)
	dec.SetStrict(true)
	if err := dec.Decode(&data); err != nil && err != io.EOF {
		return Data{}, errors.Wrap(err, "decoding reference data")
	}
	return data, nil
}
