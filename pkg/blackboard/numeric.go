package blackboard

import (
	"math"
	"reflect"
)

// Largest integers a float mantissa represents exactly.
const (
	maxExactFloat64 = 1 << 53
	maxExactFloat32 = 1 << 24
)

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(t reflect.Type) bool {
	if t == nil {
		return false
	}
	k := t.Kind()
	return isIntKind(k) || isUintKind(k) || isFloatKind(k)
}

// convertNumber converts src to target when the value survives the conversion
// unchanged: in range, no sign loss, no truncation of a fractional part and no
// precision loss on integer-to-float. For instance int(100) may be stored into a
// uint8 port, but neither int(-42) nor int(300).
func convertNumber(src any, target reflect.Type) (any, bool) {
	if src == nil || !isNumeric(target) {
		return nil, false
	}
	rv := reflect.ValueOf(src)
	if !isNumeric(rv.Type()) {
		return nil, false
	}
	out := reflect.New(target).Elem()
	tk := target.Kind()
	sk := rv.Kind()

	switch {
	case isIntKind(sk):
		i := rv.Int()
		switch {
		case isIntKind(tk):
			if out.OverflowInt(i) {
				return nil, false
			}
			out.SetInt(i)
		case isUintKind(tk):
			if i < 0 || out.OverflowUint(uint64(i)) {
				return nil, false
			}
			out.SetUint(uint64(i))
		default:
			if !exactInFloat(absInt(i), tk) {
				return nil, false
			}
			out.SetFloat(float64(i))
		}

	case isUintKind(sk):
		u := rv.Uint()
		switch {
		case isIntKind(tk):
			if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
				return nil, false
			}
			out.SetInt(int64(u))
		case isUintKind(tk):
			if out.OverflowUint(u) {
				return nil, false
			}
			out.SetUint(u)
		default:
			if !exactInFloat(u, tk) {
				return nil, false
			}
			out.SetFloat(float64(u))
		}

	default:
		f := rv.Float()
		switch {
		case isFloatKind(tk):
			if tk == reflect.Float32 && !math.IsInf(f, 0) && float64(float32(f)) != f {
				return nil, false
			}
			out.SetFloat(f)
		case isIntKind(tk):
			bits := target.Bits()
			lo, hi := -math.Ldexp(1, bits-1), math.Ldexp(1, bits-1)
			if !isIntegral(f) || f < lo || f >= hi {
				return nil, false
			}
			out.SetInt(int64(f))
		default:
			hi := math.Ldexp(1, target.Bits())
			if !isIntegral(f) || f < 0 || f >= hi {
				return nil, false
			}
			out.SetUint(uint64(f))
		}
	}
	return out.Interface(), true
}

func exactInFloat(mag uint64, k reflect.Kind) bool {
	if k == reflect.Float32 {
		return mag <= maxExactFloat32
	}
	return mag <= maxExactFloat64
}

func absInt(i int64) uint64 {
	if i < 0 {
		return uint64(-(i + 1)) + 1
	}
	return uint64(i)
}

func isIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}
