package service

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/yourusername/underdog-edge/internal/models"
	"github.com/yourusername/underdog-edge/internal/oddsmath"
)

// FormatReport writes the cycle report as a plain-text table: the valid
// partition ranked by EV, then the entries awaiting manual odds.
func FormatReport(w io.Writer, report *models.EVReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "TEAM\tRANK\tREAL ODDS\tPAYOUT\tFAIR PROB\tEV\n")
	for _, r := range report.Valid {
		fmt.Fprintf(tw, "%s\t%d\t%+d\t%s\t%.4f\t%s\n",
			r.Team, r.Rank, r.RealOdds, r.Payout.StringFixed(2), *r.FairProb, r.EV.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Missing) > 0 {
		fmt.Fprintf(w, "\nMissing market odds (%d):\n", len(report.Missing))
		for _, r := range report.Missing {
			fmt.Fprintf(w, "  %s (rank %d, quoted %+d)\n", r.Team, r.Rank, r.RealOdds)
		}
	}
	return nil
}

// FormatBookDetail writes one team's per-book no-vig breakdown, including
// the averaged fair price expressed back in American odds.
func FormatBookDetail(w io.Writer, team string, fp models.FairProbability) error {
	fmt.Fprintf(w, "%s — averaged no-vig odds %+d (p=%.4f)\n", team, oddsmath.ProbToAmerican(fp.Mean), fp.Mean)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "BOOK\tTEAM ODDS\tOPPONENT ODDS\tNO-VIG\n")
	for _, d := range fp.PerBook {
		fmt.Fprintf(tw, "%s\t%+d\t%+d\t%+d\n", d.Book, d.TeamOdds, d.OpponentOdds, oddsmath.ProbToAmerican(d.FairProb))
	}
	return tw.Flush()
}
