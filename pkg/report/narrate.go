package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/scttfrdmn/magclass-go/pkg/mags"
)

// Narrator prints the attrition narration of a run, one line at a time.
// Every line is flushed as soon as it is written.
type Narrator struct {
	w *bufio.Writer
}

// NewNarrator wraps w.
func NewNarrator(w io.Writer) *Narrator {
	return &Narrator{w: bufio.NewWriter(w)}
}

// Line writes one formatted line and flushes it.
func (n *Narrator) Line(format string, args ...any) error {
	if _, err := fmt.Fprintf(n.w, format, args...); err != nil {
		return err
	}
	if err := n.w.WriteByte('\n'); err != nil {
		return err
	}
	return n.w.Flush()
}

// Narrate prints the stage counts of res followed by the summary line. Each
// count describes the population entering the next filter.
func (n *Narrator) Narrate(res *mags.Result, summary Summary) error {
	t := res.Thresholds
	lines := []string{
		fmt.Sprintf("%d MAGs evaluated.", res.Evaluated),
		fmt.Sprintf("%d MAGs have an ANI >= %g%% with at least one reference genome.",
			res.IdentityQueries, t.ReportedANI),
		fmt.Sprintf("%d MAGs share a species cluster (ANI %s %g%%, AF > %g%%) with at least one reference genome.",
			res.Clustered.Len(), t.ANIOperator(), t.MinANI, t.MinAlignFraction),
		fmt.Sprintf("%d MAGs have quality score (QS) >= %g.", res.HighQuality.Len(), t.MinQS),
		fmt.Sprintf("%d MAGs are potentially novel species-level MAGs with QS >= %g.",
			res.Candidates.Len(), t.MinQS),
		fmt.Sprintf("%d high-quality clustered MAGs compared against their best reference.",
			len(res.Comparisons)),
		summary.String(),
	}
	for _, l := range lines {
		if err := n.Line("%s", l); err != nil {
			return err
		}
	}
	return nil
}
