package search

import (
	"math/big"
)

const (
	exactWeight   = 2
	partialWeight = 1
)

// Score converts a match into a signature where larger means more relevant.
//
// Two sequences are built over the item's fields: 2 where a field has an
// exact hit, and 1 where a field has only partial hits. Each sequence is
// encoded positionally as sum(s[j] * base^(len(s)-j)) with base max(s)+1,
// so earlier fields weigh more, and the pair [exact, partial] is encoded the
// same way. Because each base follows its own sequence, the exact component
// does not dominate: many partial hits can outscore a single exact hit on a
// late field, and different hit patterns may produce equal signatures.
func Score[T any](m *Match[T]) *big.Int {
	if m == nil {
		return new(big.Int)
	}

	n := len(m.Fields)
	exact := make([]int64, n)
	partial := make([]int64, n)
	for _, hit := range m.Hits {
		if hit.FieldIndex < 0 || hit.FieldIndex >= n {
			continue
		}
		if hit.Exact {
			exact[hit.FieldIndex] = exactWeight
		}
	}
	for _, hit := range m.Hits {
		if hit.FieldIndex < 0 || hit.FieldIndex >= n {
			continue
		}
		if !hit.Exact && exact[hit.FieldIndex] == 0 {
			partial[hit.FieldIndex] = partialWeight
		}
	}

	e := positional(toBig(exact))
	p := positional(toBig(partial))
	return positional([]*big.Int{e, p})
}

func toBig(seq []int64) []*big.Int {
	out := make([]*big.Int, len(seq))
	for i, v := range seq {
		out[i] = big.NewInt(v)
	}
	return out
}

// positional returns sum(seq[j] * base^(len(seq)-j)) with base = max(seq)+1.
func positional(seq []*big.Int) *big.Int {
	result := new(big.Int)
	if len(seq) == 0 {
		return result
	}

	base := new(big.Int).Set(seq[0])
	for _, v := range seq[1:] {
		if v.Cmp(base) > 0 {
			base.Set(v)
		}
	}
	base.Add(base, big.NewInt(1))

	weight := new(big.Int).Exp(base, big.NewInt(int64(len(seq))), nil)
	term := new(big.Int)
	for _, v := range seq {
		term.Mul(v, weight)
		result.Add(result, term)
		weight.Quo(weight, base)
	}
	return result
}
