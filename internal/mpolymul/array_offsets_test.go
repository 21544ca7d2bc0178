package mpolymul

import (
	"math/big"
	"math/rand"
	"reflect"
	"slices"
	"testing"

	"github.com/agbru/mpolycalc/internal/monomial"
)

// box enumerates every exponent vector bounded by degs.
func box(degs []int64) [][]uint64 {
	out := [][]uint64{make([]uint64, len(degs))}
	for v := range degs {
		var next [][]uint64
		for _, e := range out {
			for x := int64(0); x <= degs[v]; x++ {
				f := append([]uint64(nil), e...)
				f[v] = uint64(x)
				next = append(next, f)
			}
		}
		out = next
	}
	return out
}

func addExps(a, b []uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func totalDegree(e []uint64) int64 {
	var d int64
	for _, x := range e {
		d += int64(x)
	}
	return d
}

func TestOffsetSchemesAreAdditiveAndInjective(t *testing.T) {
	t.Parallel()
	bdegs, cdegs := []int64{2, 1, 3}, []int64{1, 2, 1}
	bbox, cbox := box(bdegs), box(cdegs)

	for _, ord := range monomial.Orderings() {
		t.Run(ord.String(), func(t *testing.T) {
			t.Parallel()
			var btdeg, ctdeg int64
			for _, e := range bbox {
				btdeg = max(btdeg, totalDegree(e))
			}
			for _, e := range cbox {
				ctdeg = max(ctdeg, totalDegree(e))
			}
			s, ok := newOffsetScheme(ord, bdegs, cdegs, btdeg, ctdeg, DefaultArrayCellCeiling)
			if !ok {
				t.Fatal("newOffsetScheme declined a tiny grid")
			}

			type coord struct{ k, off int }
			seen := make(map[coord]string)
			exps := make([]uint64, len(bdegs))
			for _, a := range bbox {
				for _, b := range cbox {
					sum := addExps(a, b)
					k, off := s.chunk(sum), s.offset(sum)
					if k != s.chunk(a)+s.chunk(b) || off != s.offset(a)+s.offset(b) {
						t.Fatalf("%v+%v: coordinates are not additive", a, b)
					}
					if k >= s.numChunks() || off >= s.chunkCells() {
						t.Fatalf("%v: coordinate (%d, %d) out of range", sum, k, off)
					}
					key := big.NewInt(0)
					for _, e := range sum {
						key.Lsh(key, 8).Or(key, big.NewInt(int64(e)))
					}
					if prev, dup := seen[coord{k, off}]; dup && prev != key.String() {
						t.Fatalf("%v collides with another monomial at (%d, %d)", sum, k, off)
					}
					seen[coord{k, off}] = key.String()

					s.decode(k, off, exps)
					for v := range sum {
						if exps[v] != sum[v] {
							t.Fatalf("decode(%d, %d) = %v, want %v", k, off, exps, sum)
						}
					}
				}
			}
		})
	}
}

func TestOffsetWalkMatchesOrdering(t *testing.T) {
	t.Parallel()
	degs := []int64{2, 2, 2}
	for _, ord := range monomial.Orderings() {
		t.Run(ord.String(), func(t *testing.T) {
			t.Parallel()
			s, ok := newOffsetScheme(ord, degs, degs, 6, 6, DefaultArrayCellCeiling)
			if !ok {
				t.Fatal("newOffsetScheme declined")
			}
			l := monomial.NewLayout(3, ord, 16)
			prev := make([]uint64, l.Words)
			cur := make([]uint64, l.Words)
			exps := make([]uint64, 3)
			first := true
			for k := s.numChunks() - 1; k >= 0; k-- {
				for i := 0; i < s.chunkCells(); i++ {
					cell := i
					if s.descending() {
						cell = s.chunkCells() - 1 - i
					}
					s.decode(k, cell, exps)
					if !valid(s, k, cell, exps, degs) {
						continue
					}
					l.Pack(cur, exps)
					if !first && l.Cmp(prev, cur) <= 0 {
						t.Fatalf("walk is not descending at %v", exps)
					}
					copy(prev, cur)
					first = false
				}
			}
		})
	}
}

// valid reports whether cell of chunk k decodes to a product monomial.
func valid(s offsetScheme, k, cell int, exps []uint64, degs []int64) bool {
	for v, e := range exps {
		if int64(e) > 2*degs[v] {
			return false
		}
	}
	return s.chunk(exps) == k && s.offset(exps) == cell
}

func TestLexSchemeRespectsCeilings(t *testing.T) {
	t.Parallel()
	if _, ok := newOffsetScheme(monomial.Lex, []int64{10, 10}, []int64{10, 10}, 20, 20, 400); ok {
		t.Error("21x21 grid accepted under a 400 cell ceiling")
	}
	if _, ok := newOffsetScheme(monomial.Lex, []int64{0, 1 << 24}, []int64{0, 0}, 1<<24, 0, 1<<40); ok {
		t.Error("chunk larger than MaxArrayChunkCells accepted")
	}
	if _, ok := newOffsetScheme(monomial.DegLex, make([]int64, 4), make([]int64, 4), 1<<20, 1<<20, 1<<40); ok {
		t.Error("degree chunk of (2^21+1)^3 cells accepted")
	}
}

func TestAccumulatorsAgree(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	const cells, n = 16, 200
	bc := make([]*big.Int, n)
	cc := make([]*big.Int, n)
	extremes := []int64{-1 << 63, 1<<63 - 1, -1, 0, 1}
	for i := range bc {
		if i < len(extremes) {
			bc[i] = big.NewInt(extremes[i])
			cc[i] = big.NewInt(extremes[len(extremes)-1-i])
			continue
		}
		bc[i] = big.NewInt(rng.Int63() - rng.Int63())
		cc[i] = big.NewInt(rng.Int63() - rng.Int63())
	}

	small := newOperandCoeffs(bc, cc)
	if !small.small {
		t.Fatal("int64 coefficients were not detected as small")
	}
	words := small.newAccumulator(cells)
	defer words.release()
	wide := operandCoeffs{b: bc, c: cc}.newAccumulator(cells)
	defer wide.release()

	want := make([]*big.Int, cells)
	for i := range want {
		want[i] = new(big.Int)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cell := (i*31 + j) % cells
			words.addProduct(cell, i, j)
			wide.addProduct(cell, i, j)
			want[cell].Add(want[cell], new(big.Int).Mul(bc[i], cc[j]))
		}
	}
	for cell := 0; cell < cells; cell++ {
		if words.isZero(cell) != (want[cell].Sign() == 0) {
			t.Errorf("cell %d: isZero disagrees", cell)
		}
		if got := words.take(cell); got.Cmp(want[cell]) != 0 {
			t.Errorf("word cell %d = %s, want %s", cell, got, want[cell])
		}
		if got := wide.take(cell); got.Cmp(want[cell]) != 0 {
			t.Errorf("big cell %d = %s, want %s", cell, got, want[cell])
		}
		if !words.isZero(cell) || !wide.isZero(cell) {
			t.Errorf("cell %d not cleared by take", cell)
		}
	}
}

func TestOperandCoeffsDetectsWideCoefficients(t *testing.T) {
	t.Parallel()
	wide := new(big.Int).Lsh(big.NewInt(1), 64)
	o := newOperandCoeffs([]*big.Int{big.NewInt(3)}, []*big.Int{wide})
	if o.small {
		t.Fatal("2^64 reported as an int64 coefficient")
	}
	acc := o.newAccumulator(1)
	defer acc.release()
	acc.addProduct(0, 0, 0)
	if got, want := acc.take(0), new(big.Int).Mul(big.NewInt(3), wide); got.Cmp(want) != 0 {
		t.Errorf("take = %s, want %s", got, want)
	}
}

func TestPairQueueVisitsOnlyReachableChunks(t *testing.T) {
	t.Parallel()
	b := arrayOperand{filled: []int{5, 2, 0}}
	c := arrayOperand{filled: []int{3, 1}}
	q := newPairQueue(b, c)

	type group struct {
		k  int
		us []int
	}
	want := []group{{8, []int{5}}, {6, []int{5}}, {5, []int{2}}, {3, []int{0, 2}}, {1, []int{0}}}
	var got []group
	var us []int
	for i := 0; ; i++ {
		seq, k, contrib, ok := q.next(us)
		if !ok {
			break
		}
		if seq != i {
			t.Fatalf("sequence %d handed out as %d", i, seq)
		}
		us = contrib
		got = append(got, group{k, slices.Sorted(slices.Values(contrib))})
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}
}

func TestPairQueueWithEmptyOperand(t *testing.T) {
	t.Parallel()
	q := newPairQueue(arrayOperand{filled: []int{1}}, arrayOperand{})
	if _, _, _, ok := q.next(nil); ok {
		t.Error("queue of an empty operand handed out a chunk")
	}
}
