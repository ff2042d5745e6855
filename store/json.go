package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// unmarshal decodes data into v keeping numbers as json.Number, so integers
// beyond float64 precision survive a round trip.
func unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
