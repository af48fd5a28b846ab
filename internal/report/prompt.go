package report

import (
	"fmt"
	"strings"
	"time"
)

// BuildPrompt assembles the plain-text prompt handed to the narrative
// generator: matchup, form, injuries, game log, and efficiency metrics. The
// generator sees text only; it never touches provider objects.
func BuildPrompt(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a short pre-game scouting report on %s.\n\n", r.Player.FullName())
	fmt.Fprintf(&b, "PLAYER: %s\n", r.Summary)

	if r.NextGame != nil {
		fmt.Fprintf(&b, "NEXT GAME: %s %s", r.NextGame.Team.FullName, r.NextGame.Matchup())
		if !r.NextGame.TipOff.IsZero() {
			fmt.Fprintf(&b, " — tip-off %s", r.NextGame.TipOff.UTC().Format(time.RFC1123))
		}
		b.WriteString("\n")
		if r.NextGame.OpponentBestEffort {
			b.WriteString("(opponent identity derived from odds listings; treat as best-effort)\n")
		}
		for _, ml := range r.NextGame.Moneylines {
			fmt.Fprintf(&b, "LINE: %s %s %+.0f\n", ml.Bookmaker, ml.Team, ml.Price)
		}
		for _, prop := range r.NextGame.Props {
			fmt.Fprintf(&b, "PROP: %s %s %s %.1f (%+.0f)\n", prop.Bookmaker, prop.Market, prop.Side, prop.Line, prop.Price)
		}
	} else {
		b.WriteString("NEXT GAME: No data\n")
	}

	fmt.Fprintf(&b, "\nTEAM FORM (last %d): %d-%d, %d for / %d against\n",
		r.TeamForm.Wins+r.TeamForm.Losses, r.TeamForm.Wins, r.TeamForm.Losses,
		r.TeamForm.PointsFor, r.TeamForm.PointsAgainst)

	b.WriteString("\nRECENT GAME LOG:\n")
	if len(r.GameLog) == 0 {
		b.WriteString("No data\n")
	}
	for _, entry := range r.GameLog {
		b.WriteString(entry.Line)
		b.WriteString("\n")
	}

	if m := r.TeamMetrics; m != nil {
		if m.GamesUsed == 0 {
			b.WriteString("\nTEAM EFFICIENCY: insufficient data\n")
		} else {
			fmt.Fprintf(&b, "\nTEAM EFFICIENCY (last %d): ORtg %.1f, DRtg %.1f, Net %+.1f, Pace %.1f, FG%% %.1f%%, 3P%% %.1f%%, TOV%% %.1f%%\n",
				m.GamesUsed, m.OffensiveRating, m.DefensiveRating, m.NetRating, m.Pace,
				m.FGPct*100, m.ThreePct*100, m.TurnoverPct*100)
		}
	}
	if m := r.OppMetrics; m != nil && m.GamesUsed > 0 {
		fmt.Fprintf(&b, "OPPONENT EFFICIENCY (last %d): ORtg %.1f, DRtg %.1f, Net %+.1f, Pace %.1f\n",
			m.GamesUsed, m.OffensiveRating, m.DefensiveRating, m.NetRating, m.Pace)
	}

	b.WriteString("\nINJURIES:\n")
	if len(r.InjuryNotes) == 0 {
		b.WriteString("No data\n")
	}
	for _, note := range r.InjuryNotes {
		b.WriteString(note)
		b.WriteString("\n")
	}

	if len(r.Headlines) > 0 {
		b.WriteString("\nRECENT HEADLINES:\n")
		for _, h := range r.Headlines {
			b.WriteString(h)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nKeep it under 200 words, lead with the matchup angle, and flag any DNP pattern in the log.\n")
	return b.String()
}
