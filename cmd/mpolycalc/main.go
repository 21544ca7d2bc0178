// Command mpolycalc multiplies multivariate polynomials over the integers,
// choosing between dense, array and heap strategies, and can compare the
// strategies or calibrate them for the current machine.
package main

import (
	"context"
	"os"

	"github.com/agbru/mpolycalc/internal/app"
	apperrors "github.com/agbru/mpolycalc/internal/errors"
)

func main() {
	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		switch {
		case app.IsHelpError(err):
			os.Exit(apperrors.ExitSuccess)
		case app.HasVersionFlag(os.Args[1:]):
			app.PrintVersion(os.Stdout)
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitErrorConfig)
	}
	os.Exit(application.Run(context.Background(), os.Stdout))
}
