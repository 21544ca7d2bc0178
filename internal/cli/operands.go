package cli

import (
	"math"
	"math/big"
	"math/rand"
	"os"

	"github.com/agbru/mpolycalc/internal/config"
	apperrors "github.com/agbru/mpolycalc/internal/errors"
	"github.com/agbru/mpolycalc/internal/mpoly"
)

// MaxDenseBoxTerms bounds the operand size of the dense generator.
const MaxDenseBoxTerms = 1 << 20

// LoadOperands reads the operands from cfg.BFile and cfg.CFile, or generates
// them with the configured generator when no files are given.
//
// Returns:
//   - b, c: The operands.
//   - error: A ConfigError if a file cannot be read or the generator
//     settings are unusable.
func LoadOperands(cfg config.AppConfig) (*mpoly.Poly, *mpoly.Poly, error) {
	if cfg.BFile != "" {
		b, err := readOperand(cfg.BFile)
		if err != nil {
			return nil, nil, err
		}
		c, err := readOperand(cfg.CFile)
		if err != nil {
			return nil, nil, err
		}
		return b, c, nil
	}

	ctx, err := cfg.Context()
	if err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	opts := cfg.ToGenOptions()
	switch cfg.Gen {
	case config.GenSparse:
		return mpoly.Sparse(rng, ctx, opts), mpoly.Sparse(rng, ctx, opts), nil
	case config.GenDense:
		if math.Pow(float64(cfg.Degree)+1, float64(ctx.NVars)) > MaxDenseBoxTerms {
			return nil, nil, apperrors.NewConfigError("dense operands of degree %d in %d variables exceed %d terms", cfg.Degree, ctx.NVars, MaxDenseBoxTerms)
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(cfg.CoeffBits))
		coeff := func([]uint64) *big.Int {
			x := new(big.Int).Rand(rng, limit)
			return x.Add(x, big.NewInt(1))
		}
		return mpoly.DenseBox(ctx, cfg.Degree, coeff), mpoly.DenseBox(ctx, cfg.Degree, coeff), nil
	default:
		return mpoly.Random(rng, ctx, opts), mpoly.Random(rng, ctx, opts), nil
	}
}

func readOperand(path string) (*mpoly.Poly, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfigError("cannot open operand: %v", err)
	}
	defer f.Close()
	p, err := mpoly.Decode(f)
	if err != nil {
		return nil, apperrors.NewConfigError("reading %s: %v", path, err)
	}
	return p, nil
}
