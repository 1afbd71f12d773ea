// Package batch runs the response pipeline over a CSV of emails, producing a
// CSV of generated replies. Each input email gets exactly one output row in
// input order.
package batch

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/replyforge/replyforge/internal/pipeline"
	"github.com/replyforge/replyforge/internal/util"
	"github.com/replyforge/replyforge/internal/worker"
)

// Row is the stable output schema for one processed email.
type Row struct {
	Email     string
	Status    string
	QueryType string
	Response  string
	Valid     string
	Error     string
}

type Options struct {
	Workers      int
	MaxRetries   int
	RateLimitRPS float64
	FailFast     bool
}

// Header returns the stable CSV header for Row.
func Header() []string {
	return []string{
		"email",
		"status",
		"query_type",
		"response",
		"valid",
		"error",
	}
}

// RespondEmails runs the pipeline over all emails and returns stable output
// rows. Pipeline failures are recorded per-row and do not fail the full run
// unless FailFast is set.
func RespondEmails(ctx context.Context, emails []string, orch *pipeline.Orchestrator, opts Options) ([]Row, error) {
	policy := worker.FailurePolicyPartialOutput
	if opts.FailFast {
		policy = worker.FailurePolicyFailFast
	}

	out, err := worker.ProcessAll(ctx, emails, func(ctx context.Context, email string) (pipeline.Result, error) {
		return orch.Execute(ctx, email)
	}, worker.Options{
		Workers:           opts.Workers,
		MaxRetries:        opts.MaxRetries,
		RateLimitRPS:      opts.RateLimitRPS,
		FailurePolicy:     policy,
		BackoffInitial:    200 * time.Millisecond,
		BackoffMax:        2 * time.Second,
		BackoffJitterFrac: 0.2,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(out))
	for _, item := range out {
		row := Row{Email: strings.TrimSpace(item.Input)}
		res := item.Output

		if item.Err != nil {
			row.Status = "error"
			row.Error = util.RedactSecrets(item.Err.Error())
			if res.Classification != nil {
				row.QueryType = string(res.Classification.QueryType)
			}
			rows = append(rows, row)
			continue
		}

		row.Status = "ok"
		row.Response = res.ResponseText
		if res.Classification != nil {
			row.QueryType = string(res.Classification.QueryType)
		}
		if res.Validation != nil {
			row.Valid = strconv.FormatBool(res.Validation.IsValid)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RunLocal reads a local input CSV of emails and writes a local output CSV of
// generated replies.
func RunLocal(ctx context.Context, inputPath, outputPath string, orch *pipeline.Orchestrator, opts Options) error {
	inF, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = inF.Close()
	}()

	emails, err := ReadEmailsCSV(inF)
	if err != nil {
		return err
	}

	rows, err := RespondEmails(ctx, emails, orch, opts)
	if err != nil {
		return err
	}

	outF, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = outF.Close()
	}()

	if err := WriteCSV(outF, rows); err != nil {
		return err
	}
	return outF.Close()
}
