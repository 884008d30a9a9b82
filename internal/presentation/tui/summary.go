package tui

import (
	"fmt"
	"sort"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/muesli/termenv"
	"gonum.org/v1/gonum/stat"
)

// PrintRunSummary renders a colored per-node digest of a filtering run:
// final belief, mean and spread of the posterior mean series, and the total
// surprise. Meant for terminals; pipe-friendly output should use --json.
func PrintRunSummary(trajectory *domain.Trajectory, totalSurprise float64) {
	p := termenv.ColorProfile()
	header := termenv.String("canopy run summary").Foreground(p.Color("#818cf8")).Bold()
	fmt.Println()
	fmt.Println(header)

	if trajectory == nil || trajectory.Len() == 0 {
		fmt.Println("  (empty trajectory)")
		return
	}

	last := trajectory.Steps[len(trajectory.Steps)-1]
	beliefs := make([]domain.Belief, len(last.Beliefs))
	copy(beliefs, last.Beliefs)
	sort.Slice(beliefs, func(i, j int) bool { return beliefs[i].Node < beliefs[j].Node })

	fmt.Printf("  steps: %d\n", trajectory.Len())
	for _, belief := range beliefs {
		series := trajectory.Mu(belief.Node)
		mean, std := stat.MeanStdDev(series, nil)

		label := termenv.String(belief.Node).Foreground(p.Color("#a78bfa"))
		fmt.Printf("  %s  mu=%.4f pi=%.4f  (series mean %.4f, sd %.4f)\n",
			label, belief.Mu, belief.Pi, mean, std)
	}

	surprise := termenv.String(fmt.Sprintf("total surprise: %.4f", totalSurprise)).Foreground(p.Color("#f472b6"))
	fmt.Println("  " + surprise.String())
	fmt.Println()
}
