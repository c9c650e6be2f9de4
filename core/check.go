package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
)

// ErrCheckFailed is returned when at least one store check step failed.
var ErrCheckFailed = errors.New("store check failed")

// ExecuteStoreCheck tests that the store is reachable and that one refresh can read from it.
// It prints a report to stdout and returns ErrCheckFailed when any step failed.
func ExecuteStoreCheck(ctx context.Context, cfg *contract.Config, store contract.ObservationStore) error {
	result := NewCheckResultBuilder(ctx, cfg, store).
		CheckConnection().
		CheckDataOperations().
		BuildResult().
		GetResult()

	if err := printCheckResult(os.Stdout, result); err != nil {
		return err
	}
	if !result.Passed {
		return fmt.Errorf("%w: %d failing step(s)", ErrCheckFailed, len(result.Failed()))
	}
	return nil
}

// printCheckResult prints the check result in a concise format suitable for CI/CD.
func printCheckResult(w io.Writer, result *schema.CheckResult) error {
	printCheckHeader(w, result)
	for _, step := range result.Steps {
		_, _ = fmt.Fprintf(w, "%s %s: %s\n", checkIcon(step.Level), step.Name, step.Detail)
	}
	_, _ = fmt.Fprintln(w)

	if result.Passed {
		_, err := fmt.Fprintln(w, "✅ All checks passed. The dashboard can connect and read data.")
		return err
	}
	_, err := fmt.Fprintf(w, "❌ Store check failed: %d of %d step(s) failed\n", len(result.Failed()), len(result.Steps))
	return err
}

// printCheckHeader prints the connection target with padded labels.
func printCheckHeader(w io.Writer, result *schema.CheckResult) {
	_, _ = fmt.Fprintln(w, "Store Check Results:")

	labels := []string{"Backend:", "Target:"}
	values := []string{result.Backend, result.Target}
	if result.Schema != "" {
		labels = append(labels, "Schema:")
		values = append(values, result.Schema)
	}

	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}
	for i, label := range labels {
		_, _ = fmt.Fprintf(w, "  %-*s %s\n", maxLabelLen, label, values[i])
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Ran %d checks in %v\n\n", len(result.Steps), result.Duration)
}

func checkIcon(level schema.CheckLevel) string {
	switch level {
	case schema.CheckPass:
		return "✅"
	case schema.CheckInfo:
		return "ℹ️ "
	case schema.CheckWarn:
		return "⚠️ "
	default:
		return "❌"
	}
}
