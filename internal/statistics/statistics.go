// Package statistics accumulates showdown outcomes for one hand slot and
// derives rates and confidence intervals from them.
package statistics

import (
	"fmt"
	"math"
)

// Tally tracks the outcomes of a single hand slot across simulated deals.
// Each deal is a win, a share of a k-way tie, or a loss.
type Tally struct {
	Trials int
	Wins   int
	Ties   int

	// Share sums the pot fraction won per deal: 1 for a win, 1/k for a
	// k-way tie, 0 for a loss. Share2 sums the squares for variance.
	Share  float64
	Share2 float64
}

// Win records an outright win.
func (t *Tally) Win() {
	t.Trials++
	t.Wins++
	t.Share++
	t.Share2++
}

// Tie records a tie between k hands including this one.
func (t *Tally) Tie(k int) {
	t.Trials++
	t.Ties++
	f := 1 / float64(k)
	t.Share += f
	t.Share2 += f * f
}

// Lose records a loss.
func (t *Tally) Lose() {
	t.Trials++
}

// Losses returns the number of deals the slot neither won nor tied.
func (t *Tally) Losses() int {
	return t.Trials - t.Wins - t.Ties
}

// WinRate returns the win percentage (0-100)
func (t *Tally) WinRate() float64 {
	return t.percent(t.Wins)
}

// TieRate returns the tie percentage (0-100)
func (t *Tally) TieRate() float64 {
	return t.percent(t.Ties)
}

// LoseRate returns the loss percentage (0-100)
func (t *Tally) LoseRate() float64 {
	return t.percent(t.Losses())
}

func (t *Tally) percent(n int) float64 {
	if t.Trials == 0 {
		return 0
	}
	return 100 * float64(n) / float64(t.Trials)
}

// Equity returns the mean pot share per deal (0-1), ties split evenly.
func (t *Tally) Equity() float64 {
	if t.Trials == 0 {
		return 0
	}
	return t.Share / float64(t.Trials)
}

// Variance returns the sample variance of the per-deal pot share
func (t *Tally) Variance() float64 {
	if t.Trials < 2 {
		return 0
	}
	mean := t.Equity()
	v := (t.Share2 - float64(t.Trials)*mean*mean) / float64(t.Trials-1)
	return max(v, 0)
}

// StdDev returns the sample standard deviation of the per-deal pot share
func (t *Tally) StdDev() float64 {
	return math.Sqrt(t.Variance())
}

// StdError returns the standard error of the equity estimate
func (t *Tally) StdError() float64 {
	if t.Trials == 0 {
		return 0
	}
	return t.StdDev() / math.Sqrt(float64(t.Trials))
}

// ConfidenceInterval95 returns the 95% confidence interval for the equity
func (t *Tally) ConfidenceInterval95() (float64, float64) {
	mean := t.Equity()
	margin := 1.96 * t.StdError()
	return max(mean-margin, 0), min(mean+margin, 1)
}

// Validate checks that the counts and shares are consistent.
func (t *Tally) Validate() error {
	if t.Wins < 0 || t.Ties < 0 || t.Trials < 0 {
		return fmt.Errorf("negative counts: trials=%d wins=%d ties=%d", t.Trials, t.Wins, t.Ties)
	}
	if t.Wins+t.Ties > t.Trials {
		return fmt.Errorf("wins (%d) plus ties (%d) exceed trials (%d)", t.Wins, t.Ties, t.Trials)
	}
	if t.Share < float64(t.Wins)-1e-9 || t.Share > float64(t.Wins+t.Ties)+1e-9 {
		return fmt.Errorf("pot share %.6f outside [%d, %d]", t.Share, t.Wins, t.Wins+t.Ties)
	}
	return nil
}
