// bank-check validates a question bank file or URL and reports whether it
// can sustain the configured exam draw. Exit status 1 means the bank is
// unusable, so it slots into a content pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cippe-prep/internal/bankfetch"
	"cippe-prep/internal/config"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	bank := flag.String("bank", "", "question bank JSON file (overrides config)")
	bankURL := flag.String("bank-url", "", "question bank URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *bank != "" {
		cfg.BankPath = *bank
		cfg.BankURL = ""
	}
	if *bankURL != "" {
		cfg.BankURL = *bankURL
	}

	cat, err := bankfetch.LoadBank(context.Background(), cfg.BankURL, cfg.BankPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	scenarios := 0
	analyses := 0
	for _, q := range cat.All() {
		if q.Scenario != "" {
			scenarios++
		}
		if q.Analysis != "" {
			analyses++
		}
	}

	fmt.Printf("bank OK: %d questions (%d with scenario, %d with analysis)\n",
		cat.Len(), scenarios, analyses)

	if cat.Len() >= cfg.ExamQuestionCount {
		fmt.Printf("exam draw: supported (%d questions per exam, %d unscored)\n",
			cfg.ExamQuestionCount, cfg.ExamTestCount)
		return
	}
	fmt.Printf("exam draw: not supported (%d required, %d loaded)\n",
		cfg.ExamQuestionCount, cat.Len())
	os.Exit(1)
}
