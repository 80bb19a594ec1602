package trade

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	namePat = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	genPat  = regexp.MustCompile(`^/([ibfs][wxrg]?)([0-9.-]+)?(,[0-9.-]+)?$`)
	// groups                          1             2          3
)

var reservedFields = map[string]struct{}{
	"account_id": {}, "trade_id": {}, "symbol": {}, "trade_type": {},
	"quantity": {}, "price": {}, "timestamp": {},
}

// ParseFields turns name -> spec pairs into value generators. A spec is
// either a constant (sent with the matching JSON type) or a generator that
// starts with a slash:
//
//	/i, /ir   int in [0, N) or [N, M)       (default [0, 100))
//	/ig       int, gaussian mean N stddev M
//	/f, /fr   float in [0, N) or [N, M)
//	/fg       float, gaussian mean N stddev M
//	/s        lowercase string of length N  (default 16)
//	/sx       hex string of length N
//	/sw       one of N word pairs
//	/b        true with probability N%      (default 50)
func ParseFields(rng Rng, specs map[string]string) (map[string]func() any, error) {
	fields := make(map[string]func() any, len(specs))
	for name, spec := range specs {
		if !namePat.MatchString(name) {
			return nil, fmt.Errorf("invalid field name %q", name)
		}
		if _, ok := reservedFields[name]; ok {
			return nil, fmt.Errorf("field %s is a standard trade field and cannot be overridden", name)
		}
		if len(spec) == 0 || spec[0] != '/' {
			fields[name] = getConst(spec)
			continue
		}

		matches := genPat.FindStringSubmatch(spec)
		if matches == nil {
			return nil, fmt.Errorf("unparseable field %s=%s", name, spec)
		}
		var err error
		gentype, p1, p2 := matches[1], matches[2], matches[3]
		switch gentype {
		case "i", "ir", "ig":
			fields[name], err = getIntGen(rng, gentype, p1, p2)
			if err != nil {
				return nil, fmt.Errorf("invalid int in field %s: %w", name, err)
			}
		case "f", "fr", "fg":
			fields[name], err = getFloatGen(rng, gentype, p1, p2)
			if err != nil {
				return nil, fmt.Errorf("invalid float in field %s: %w", name, err)
			}
		case "b":
			n := 50
			if p1 != "" {
				n, err = strconv.Atoi(p1)
				if err != nil || n < 0 || n > 100 {
					return nil, fmt.Errorf("invalid bool option in %s=%s", name, spec)
				}
			}
			fields[name] = func() any { return rng.BoolWithProb(n) }
		case "s", "sw", "sx":
			n := 16
			if p1 != "" {
				n, err = strconv.Atoi(p1)
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("invalid string option in %s=%s", name, spec)
				}
			}
			switch gentype {
			case "sw":
				words := make([]string, n)
				for i := 0; i < n; i++ {
					words[i] = rng.WordPair()
				}
				fields[name] = func() any { return rng.Choice(words) }
			case "sx":
				fields[name] = func() any { return rng.HexString(n) }
			default:
				fields[name] = func() any { return rng.String(n) }
			}
		default:
			return nil, fmt.Errorf("invalid generator type %s in field %s", gentype, name)
		}
	}
	return fields, nil
}

func getConst(value string) func() any {
	switch value {
	case "true":
		return func() any { return true }
	case "false":
		return func() any { return false }
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return func() any { return i }
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return func() any { return f }
	}
	return func() any { return value }
}

func gaussianDefaults(v1, v2 float64) (float64, float64) {
	if v1 == 0 && v2 == 0 {
		v1 = 100
		v2 = 10
	} else if v2 == 0 {
		v2 = v1 / 10
	}
	return v1, v2
}

// rangeParams reads the optional N and ,M parameters. A single parameter
// is the upper bound.
func rangeParams(p1, p2 string) (float64, float64, error) {
	var v1, v2 float64
	var err error
	if p1 != "" {
		v1, err = strconv.ParseFloat(p1, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%s is not a number", p1)
		}
	}
	if p2 == "" || p2 == "," {
		return 0, v1, nil
	}
	v2, err = strconv.ParseFloat(p2[1:], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s is not a number", p2[1:])
	}
	return v1, v2, nil
}

func getIntGen(rng Rng, gentype, p1, p2 string) (func() any, error) {
	v1, v2, err := rangeParams(p1, p2)
	if err != nil {
		return nil, err
	}
	if gentype == "ig" {
		g1, g2 := gaussianDefaults(v1, v2)
		return func() any { return rng.GaussianInt(g1, g2) }, nil
	}
	lo, hi := int(v1), int(v2)
	if lo == 0 && hi == 0 {
		hi = 100
	}
	if hi <= lo {
		return nil, fmt.Errorf("empty range [%d, %d)", lo, hi)
	}
	return func() any { return int64(lo + rng.Intn(hi-lo)) }, nil
}

func getFloatGen(rng Rng, gentype, p1, p2 string) (func() any, error) {
	v1, v2, err := rangeParams(p1, p2)
	if err != nil {
		return nil, err
	}
	if gentype == "fg" {
		g1, g2 := gaussianDefaults(v1, v2)
		return func() any { return rng.Gaussian(g1, g2) }, nil
	}
	if v1 == 0 && v2 == 0 {
		v2 = 100
	}
	if v2 <= v1 {
		return nil, fmt.Errorf("empty range [%v, %v)", v1, v2)
	}
	return func() any { return rng.Float(v1, v2) }, nil
}
