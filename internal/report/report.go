package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wallet-cleanup-sol/internal/logic/batch"

	"gopkg.in/yaml.v3"
)

type WindowEntry struct {
	From      int      `yaml:"from"`
	To        int      `yaml:"to"`
	Succeeded int      `yaml:"succeeded"`
	Failed    int      `yaml:"failed"`
	Error     string   `yaml:"error,omitempty"`
	Failures  []string `yaml:"failures,omitempty"`
}

// JobReport 一次清理任务的运行报告
type JobReport struct {
	Wallet       string        `yaml:"wallet"`
	Rpc          string        `yaml:"rpc"`
	SimulateOnly bool          `yaml:"simulate_only"`
	StartedAt    time.Time     `yaml:"started_at"`
	FinishedAt   time.Time     `yaml:"finished_at"`
	Accounts     int           `yaml:"accounts"`
	RentLamports uint64        `yaml:"rent_lamports"`
	Success      bool          `yaml:"success"`
	Processed    int           `yaml:"processed"`
	Total        int           `yaml:"total"`
	Windows      []WindowEntry `yaml:"windows"`
}

// Fill 将批处理结果写入报告
func (r *JobReport) Fill(res batch.Result) {
	r.Success = res.Success
	r.Processed = res.Processed
	r.Total = res.Total
	r.Windows = make([]WindowEntry, 0, len(res.Windows))
	for _, w := range res.Windows {
		entry := WindowEntry{
			From:      w.From,
			To:        w.To,
			Succeeded: w.Succeeded,
			Failed:    w.Failed,
		}
		if w.Err != nil {
			entry.Error = w.Err.Error()
		}
		for _, out := range w.Outcomes {
			if out.Success() {
				continue
			}
			entry.Failures = append(entry.Failures, fmt.Sprintf("%s %s: %v", out.Signature, out.Status, out.Err))
		}
		r.Windows = append(r.Windows, entry)
	}
}

func (r *JobReport) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
