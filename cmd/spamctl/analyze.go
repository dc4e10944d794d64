package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-evidence-engine/internal/core"
	"github.com/mikey/spam-evidence-engine/internal/evidence"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file...]",
	Short: "Score messages and print their evidence reports",
	Long: `Score one or more messages. Files ending in .eml are parsed as raw
MIME messages; anything else is read as a JSON email record. With no file,
or "-", the message is read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"-"}
		}
		return invoke(cmd, func(ctx context.Context, svc *core.ScoringService, store core.ReputationStore, decoder *evidence.Decoder) error {
			defer store.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			for _, path := range args {
				record, err := readRecord(cmd.InOrStdin(), path, decoder)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				report, err := svc.Evaluate(ctx, record)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := enc.Encode(newReportView(path, report)); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func readRecord(stdin io.Reader, path string, decoder *evidence.Decoder) (*core.EmailRecord, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if strings.EqualFold(filepath.Ext(path), ".eml") || !bytes.HasPrefix(trimmed, []byte("{")) {
		return evidence.FromMIME(bytes.NewReader(data))
	}
	return decoder.Decode(trimmed)
}

type signalView struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Reason   string  `json:"reason"`
	Degraded bool    `json:"degraded,omitempty"`
}

type reportView struct {
	Source       string       `json:"source"`
	MessageID    string       `json:"message_id,omitempty"`
	SenderDomain string       `json:"sender_domain"`
	LinkDomains  []string     `json:"link_domains"`
	Profile      string       `json:"profile"`
	FinalScore   float64      `json:"final_score"`
	Threshold    float64      `json:"threshold"`
	Verdict      string       `json:"verdict"`
	Signals      []signalView `json:"signals"`
}

func newReportView(source string, report *core.Report) reportView {
	v := report.Verdict
	view := reportView{
		Source:       source,
		MessageID:    report.MessageID,
		SenderDomain: report.Evidence.SenderDomain,
		LinkDomains:  report.Evidence.LinkDomains,
		Profile:      v.Profile,
		FinalScore:   v.FinalScore,
		Threshold:    v.Threshold,
		Verdict:      v.Label(),
	}
	for _, c := range v.Contributions {
		view.Signals = append(view.Signals, signalView{
			Name:     string(c.Name),
			Score:    c.Score,
			Weight:   c.Weight,
			Weighted: c.Weighted,
			Reason:   c.Reason,
			Degraded: c.Degraded,
		})
	}
	return view
}
