package bt

import (
	"math/rand"
	"strconv"
	"time"
)

// Params holds the verbatim parameter tokens of one document line and is
// handed to every factory. Accessors are positional; a missing required index
// or a token that does not convert yields an ErrParameterParse build error.
type Params struct {
	tag    string
	line   int
	values []string
	env    *buildEnv
}

// NewParams builds a Params value outside of a document build, e.g. to call a
// factory directly from a test or from host code.
func NewParams(tag string, values ...string) Params {
	return Params{tag: tag, values: values}
}

func (p Params) Tag() string { return p.tag }
func (p Params) Len() int    { return len(p.values) }

// Raw returns a copy of the tokens.
func (p Params) Raw() []string {
	out := make([]string, len(p.values))
	copy(out, p.values)
	return out
}

func (p Params) String(i int) (string, error) {
	if i < 0 || i >= len(p.values) {
		return "", p.fail(i, "", nil)
	}
	return p.values[i], nil
}

func (p Params) Bool(i int) (bool, error) {
	raw, err := p.String(i)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, p.fail(i, raw, err)
	}
	return v, nil
}

func (p Params) Int(i int) (int, error) {
	raw, err := p.String(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, p.fail(i, raw, err)
	}
	return v, nil
}

func (p Params) Float(i int) (float64, error) {
	raw, err := p.String(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, p.fail(i, raw, err)
	}
	return v, nil
}

// BoolOr returns def when index i is absent and fails only on a bad token.
func (p Params) BoolOr(i int, def bool) (bool, error) {
	if i >= len(p.values) {
		return def, nil
	}
	return p.Bool(i)
}

func (p Params) IntOr(i int, def int) (int, error) {
	if i >= len(p.values) {
		return def, nil
	}
	return p.Int(i)
}

func (p Params) FloatOr(i int, def float64) (float64, error) {
	if i >= len(p.values) {
		return def, nil
	}
	return p.Float(i)
}

// Rand returns a random source dedicated to the node being built. Sources are
// derived from the build's seed, so a seeded build is reproducible.
func (p Params) Rand() *rand.Rand {
	if p.env == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.env.nextRand()
}

func (p Params) fail(i int, raw string, cause error) error {
	return &BuildError{Err: ErrParameterParse, Tag: p.tag, Line: p.line, Index: i, Raw: raw, Cause: cause}
}
