package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/agbru/mpolycalc/internal/ui"
)

// setCustomUsage installs a themed usage function on fs.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}

		out := fs.Output()
		fmt.Fprintf(out, "\n%sMultivariate Polynomial Calculator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Multiplies sparse polynomials over Z with dense, array and heap strategies.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			flagSig := "-" + f.Name
			if len(name) > 0 {
				flagSig += " " + name
			}
			fmt.Fprintf(out, "  %s%-25s%s %s", t.Primary, flagSig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEvery flag can also be set through %s<NAME>, e.g. %sTHREADS=4.\n\n", EnvPrefix, EnvPrefix)
	}
}
